package domain

import "strings"

// Ticker is a 24h rolling window snapshot of one instrument.
type Ticker struct {
	Symbol      string  `json:"symbol"`
	QuoteVolume float64 `json:"quote_volume"`
}

// HasQuoteAsset reports whether the symbol is quoted in the given asset, e.g. "BTCUSDT" in "USDT".
func (t Ticker) HasQuoteAsset(quote string) bool {
	return strings.HasSuffix(t.Symbol, quote)
}
