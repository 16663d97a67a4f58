package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/vitos/solidity_screener/internal/domain"
	"go.uber.org/zap"
)

type SolidityAnalyzer struct {
	market  domain.MarketData
	metrics Metrics
	logger  *zap.Logger
}

func NewSolidityAnalyzer(market domain.MarketData, metrics Metrics, logger *zap.Logger) *SolidityAnalyzer {
	return &SolidityAnalyzer{
		market:  market,
		metrics: metricsOrNop(metrics),
		logger:  logger,
	}
}

// AnalyzeSolidity fetches the order book and the 24h ticker of symbol in
// parallel and computes its solidity. Both fetches must succeed.
func (a *SolidityAnalyzer) AnalyzeSolidity(ctx context.Context, symbol string, ratio float64) (*domain.SolidityResult, error) {
	var (
		wg        sync.WaitGroup
		book      *domain.OrderBook
		ticker    *domain.Ticker
		bookErr   error
		tickerErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		book, bookErr = a.market.GetOrderBook(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		ticker, tickerErr = a.market.GetTicker(ctx, symbol)
	}()
	wg.Wait()

	var err error
	switch {
	case bookErr != nil:
		err = fmt.Errorf("order book %s: %w", symbol, bookErr)
	case tickerErr != nil:
		err = fmt.Errorf("ticker %s: %w", symbol, tickerErr)
	case book == nil || ticker == nil:
		err = fmt.Errorf("%w: empty response for %s", domain.ErrNetwork, symbol)
	}
	if err != nil {
		a.metrics.RecordAnalysis(nil, err)
		return nil, err
	}

	result := ComputeSolidity(symbol, book, ticker.QuoteVolume, ratio)
	a.metrics.RecordAnalysis(result, nil)

	if result.HasSignal() {
		a.logger.Debug("Solidity found",
			zap.String("symbol", symbol),
			zap.Bool("long", result.SolidityLong != nil),
			zap.Bool("short", result.SolidityShort != nil))
	}
	return result, nil
}

// ComputeSolidity checks whether the biggest ask (bid) holds more than ratio
// percent of the total ask (bid) size. The first of equal maxima wins.
func ComputeSolidity(symbol string, book *domain.OrderBook, quoteVolume, ratio float64) *domain.SolidityResult {
	sumAsks, maxAsk := sideStats(book.Asks)
	sumBids, maxBid := sideStats(book.Bids)

	result := &domain.SolidityResult{
		Symbol:      symbol,
		QuoteVolume: quoteVolume,
		BuyVolume:   sumAsks,
		SellVolume:  sumBids,
	}

	if concentrated(maxAsk.Volume, sumAsks, ratio) {
		level := maxAsk
		result.SolidityLong = &level
	}
	if concentrated(maxBid.Volume, sumBids, ratio) {
		level := maxBid
		result.SolidityShort = &level
	}

	return result
}

func sideStats(entries []domain.OrderBookEntry) (float64, domain.SolidityLevel) {
	var sum float64
	var top domain.SolidityLevel
	for _, e := range entries {
		sum += e.Size
		if top.Volume < e.Size {
			top = domain.SolidityLevel{Price: e.Price, Volume: e.Size}
		}
	}
	return sum, top
}

// concentrated is false for an empty side instead of comparing NaN.
func concentrated(top, total, ratio float64) bool {
	if total <= 0 {
		return false
	}
	return top/(total/100) > ratio
}
