package usecase

import (
	"context"
	"sync"

	"github.com/vitos/solidity_screener/internal/domain"
)

// MockMarket implements domain.MarketData for usecase tests.
type MockMarket struct {
	Tickers      []domain.Ticker
	TickersErr   error
	Ticker       map[string]*domain.Ticker
	TickerErr    error
	OrderBooks   map[string]*domain.OrderBook
	OrderBookErr error
	Candles      []domain.Candle
	CandlesErr   error
	Subscription *MockSubscription
	SubscribeErr error

	// OnOrderBook, when set, runs before GetOrderBook returns.
	OnOrderBook func(ctx context.Context, symbol string) error
}

func (m *MockMarket) GetTickers(ctx context.Context) ([]domain.Ticker, error) {
	return m.Tickers, m.TickersErr
}

func (m *MockMarket) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	if m.TickerErr != nil {
		return nil, m.TickerErr
	}
	if t, ok := m.Ticker[symbol]; ok {
		return t, nil
	}
	return &domain.Ticker{Symbol: symbol}, nil
}

func (m *MockMarket) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	if m.OnOrderBook != nil {
		if err := m.OnOrderBook(ctx, symbol); err != nil {
			return nil, err
		}
	}
	if m.OrderBookErr != nil {
		return nil, m.OrderBookErr
	}
	if ob, ok := m.OrderBooks[symbol]; ok {
		return ob, nil
	}
	return &domain.OrderBook{Symbol: symbol}, nil
}

func (m *MockMarket) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	return m.Candles, m.CandlesErr
}

func (m *MockMarket) SubscribeKlines(ctx context.Context, symbol, interval string) (domain.KlineSubscription, error) {
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	return m.Subscription, nil
}

// MockSubscription is fed by the test through Push and Drop.
type MockSubscription struct {
	ch        chan domain.Candle
	closeOnce sync.Once
	mu        sync.Mutex
	err       error
	closed    bool
}

func NewMockSubscription() *MockSubscription {
	return &MockSubscription{ch: make(chan domain.Candle, 16)}
}

func (s *MockSubscription) Push(c domain.Candle) { s.ch <- c }

// Drop ends the feed with err, as a lost connection would.
func (s *MockSubscription) Drop(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.ch) })
}

func (s *MockSubscription) Candles() <-chan domain.Candle { return s.ch }

func (s *MockSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *MockSubscription) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.ch) })
	return nil
}

func (s *MockSubscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
