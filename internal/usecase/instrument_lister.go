package usecase

import (
	"context"
	"fmt"

	"github.com/vitos/solidity_screener/internal/domain"
)

const DefaultQuoteAsset = "USDT"

type InstrumentLister struct {
	market     domain.MarketData
	quoteAsset string
}

func NewInstrumentLister(market domain.MarketData, quoteAsset string) *InstrumentLister {
	if quoteAsset == "" {
		quoteAsset = DefaultQuoteAsset
	}
	return &InstrumentLister{market: market, quoteAsset: quoteAsset}
}

// ListEligibleSymbols returns the symbols quoted in the configured asset whose
// 24h quote volume is above minVolume, in exchange order.
func (l *InstrumentLister) ListEligibleSymbols(ctx context.Context, minVolume float64) ([]string, error) {
	tickers, err := l.market.GetTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t.HasQuoteAsset(l.quoteAsset) && t.QuoteVolume > minVolume {
			symbols = append(symbols, t.Symbol)
		}
	}
	return symbols, nil
}
