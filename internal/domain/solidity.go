package domain

// SolidityLevel is the dominant order on one side of the book.
type SolidityLevel struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// SolidityResult is the liquidity concentration verdict for one symbol.
//
// BuyVolume is the total ask size and SellVolume the total bid size. The pairing
// is kept for downstream consumers that already read these fields.
type SolidityResult struct {
	Symbol        string         `json:"symbol"`
	QuoteVolume   float64        `json:"quote_volume"`
	BuyVolume     float64        `json:"buy_volume"`
	SellVolume    float64        `json:"sell_volume"`
	SolidityLong  *SolidityLevel `json:"solidity_long,omitempty"`
	SolidityShort *SolidityLevel `json:"solidity_short,omitempty"`
}

// HasSignal reports whether either side of the book is dominated by a single order.
func (r *SolidityResult) HasSignal() bool {
	return r != nil && (r.SolidityLong != nil || r.SolidityShort != nil)
}
