package domain

import (
	"encoding/json"
	"time"
)

// ScanOutcome holds the analysis of one symbol. Exactly one of Result and Err is set.
type ScanOutcome struct {
	Symbol string
	Result *SolidityResult
	Err    error
}

func (o ScanOutcome) MarshalJSON() ([]byte, error) {
	out := struct {
		Symbol string          `json:"symbol"`
		Result *SolidityResult `json:"result,omitempty"`
		Error  string          `json:"error,omitempty"`
	}{Symbol: o.Symbol, Result: o.Result}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

// ScanReport is the aggregated result of one pass over the instrument universe.
type ScanReport struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	MinVolume float64       `json:"min_volume"`
	Ratio     float64       `json:"ratio"`
	Groups    int           `json:"groups"`
	Outcomes  []ScanOutcome `json:"outcomes"`
}

// Accepted returns the symbols whose analysis completed.
func (r *ScanReport) Accepted() []string {
	var symbols []string
	for _, o := range r.Outcomes {
		if o.Err == nil && o.Result != nil {
			symbols = append(symbols, o.Symbol)
		}
	}
	return symbols
}

// WithSignal returns the analysed symbols that show solidity on at least one side.
func (r *ScanReport) WithSignal() []*SolidityResult {
	var results []*SolidityResult
	for _, o := range r.Outcomes {
		if o.Err == nil && o.Result.HasSignal() {
			results = append(results, o.Result)
		}
	}
	return results
}

// Failed returns the outcomes that ended in an error.
func (r *ScanReport) Failed() []ScanOutcome {
	var failed []ScanOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// ScanSummary is the persisted shape of a ScanReport.
type ScanSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	MinVolume  float64   `json:"min_volume"`
	Ratio      float64   `json:"ratio"`
	Symbols    int       `json:"symbols"`
	Failed     int       `json:"failed"`
	Signals    []string  `json:"signals"`
}
