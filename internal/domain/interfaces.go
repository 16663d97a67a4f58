package domain

import (
	"context"
	"time"
)

// MarketData defines the public market endpoints the screener reads from.
type MarketData interface {
	GetTickers(ctx context.Context) ([]Ticker, error)
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)
	GetOrderBook(ctx context.Context, symbol string) (*OrderBook, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	SubscribeKlines(ctx context.Context, symbol, interval string) (KlineSubscription, error)
}

// KlineSubscription is a live kline feed for one symbol/interval pair.
// Candles is closed when the feed ends; Err reports why.
type KlineSubscription interface {
	Candles() <-chan Candle
	Err() error
	Close() error
}

type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

type OrderBookEntry struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

type OrderBook struct {
	Symbol string           `json:"symbol"`
	Bids   []OrderBookEntry `json:"bids"`
	Asks   []OrderBookEntry `json:"asks"`
}

// ScanRepository stores finished scan reports.
type ScanRepository interface {
	SaveScanReport(ctx context.Context, report *ScanReport) error
	ListScanReports(ctx context.Context, limit int) ([]*ScanSummary, error)
}
