package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitos/solidity_screener/internal/domain"
	"go.uber.org/zap"
)

type KlineEventKind string

const (
	KlineReplace KlineEventKind = "replace"
	KlineAppend  KlineEventKind = "append"
	KlineFailed  KlineEventKind = "failed"
)

// KlineEvent tells the owner of a candle series how to merge a live update.
type KlineEvent struct {
	Kind   KlineEventKind
	Candle domain.Candle
	Err    error
}

// KlineStream is a started (or failed) live candle feed. Events is closed when
// the feed ends; a failure is delivered as a single KlineFailed event first.
type KlineStream struct {
	Symbol   string
	Interval string
	Initial  []domain.Candle
	Events   <-chan KlineEvent

	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the feed and waits for Events to be closed.
func (s *KlineStream) Close() error {
	s.cancel()
	<-s.done
	return nil
}

type KlineStreamer struct {
	market  domain.MarketData
	metrics Metrics
	logger  *zap.Logger
}

func NewKlineStreamer(market domain.MarketData, metrics Metrics, logger *zap.Logger) *KlineStreamer {
	return &KlineStreamer{
		market:  market,
		metrics: metricsOrNop(metrics),
		logger:  logger,
	}
}

// History returns the last limit candles without opening a live feed.
func (k *KlineStreamer) History(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	candles, err := k.market.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}
	return candles, nil
}

// StreamKlines loads the last limit candles and follows the live feed. It never
// returns an error: setup failures are logged and reported on Events.
func (k *KlineStreamer) StreamKlines(ctx context.Context, symbol, interval string, limit int) *KlineStream {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan KlineEvent, 64)
	stream := &KlineStream{
		Symbol:   symbol,
		Interval: interval,
		Events:   events,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	initial, err := k.market.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		k.fail(stream, events, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err))
		return stream
	}
	stream.Initial = initial

	sub, err := k.market.SubscribeKlines(ctx, symbol, interval)
	if err != nil {
		k.fail(stream, events, fmt.Errorf("subscribe klines %s %s: %w", symbol, interval, err))
		return stream
	}

	var last time.Time
	if len(initial) > 0 {
		last = initial[len(initial)-1].OpenTime
	}
	go k.pump(ctx, stream, sub, events, last)

	return stream
}

func (k *KlineStreamer) fail(stream *KlineStream, events chan<- KlineEvent, err error) {
	k.logger.Error("Kline stream failed", zap.String("symbol", stream.Symbol), zap.String("interval", stream.Interval), zap.Error(err))
	k.metrics.RecordStreamEvent(string(KlineFailed))
	events <- KlineEvent{Kind: KlineFailed, Err: err}
	close(events)
	close(stream.done)
	stream.cancel()
}

func (k *KlineStreamer) pump(ctx context.Context, stream *KlineStream, sub domain.KlineSubscription, events chan<- KlineEvent, last time.Time) {
	defer close(stream.done)
	defer close(events)
	defer sub.Close()

	send := func(ev KlineEvent) bool {
		select {
		case events <- ev:
			k.metrics.RecordStreamEvent(string(ev.Kind))
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case candle, ok := <-sub.Candles():
			if !ok {
				if err := sub.Err(); err != nil {
					k.logger.Error("Kline stream dropped", zap.String("symbol", stream.Symbol), zap.Error(err))
					send(KlineEvent{Kind: KlineFailed, Err: err})
				}
				return
			}

			kind := KlineAppend
			if !last.IsZero() && candle.OpenTime.Equal(last) {
				kind = KlineReplace
			}
			last = candle.OpenTime

			if !send(KlineEvent{Kind: kind, Candle: candle}) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
