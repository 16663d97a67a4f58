package domain

import "errors"

var (
	// ErrNetwork marks a failed request or a non-success HTTP status.
	ErrNetwork = errors.New("network error")
	// ErrParse marks a malformed numeric or time field in an exchange payload.
	ErrParse = errors.New("parse error")
	// ErrStream marks a failed subscription setup or a dropped live feed.
	ErrStream = errors.New("stream error")
)
