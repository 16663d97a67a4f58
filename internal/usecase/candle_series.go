package usecase

import (
	"sync"

	"github.com/vitos/solidity_screener/internal/domain"
)

// CandleSeries is a caller-owned candle sequence that live updates are merged into.
// It is safe for concurrent use.
type CandleSeries struct {
	mu      sync.RWMutex
	candles []domain.Candle
}

func NewCandleSeries(initial []domain.Candle) *CandleSeries {
	candles := make([]domain.Candle, len(initial))
	copy(candles, initial)
	return &CandleSeries{candles: candles}
}

// Merge replaces the last candle when it has the same open time and appends
// otherwise. It reports which of the two it did.
func (s *CandleSeries) Merge(c domain.Candle) KlineEventKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.candles); n > 0 && s.candles[n-1].OpenTime.Equal(c.OpenTime) {
		s.candles[n-1] = c
		return KlineReplace
	}
	s.candles = append(s.candles, c)
	return KlineAppend
}

// Apply merges a stream event. A KlineFailed event leaves the series untouched
// and returns the event's error.
func (s *CandleSeries) Apply(ev KlineEvent) error {
	if ev.Kind == KlineFailed {
		return ev.Err
	}
	s.Merge(ev.Candle)
	return nil
}

func (s *CandleSeries) Snapshot() []domain.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

func (s *CandleSeries) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candles)
}

func (s *CandleSeries) Last() (domain.Candle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.candles) == 0 {
		return domain.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}
