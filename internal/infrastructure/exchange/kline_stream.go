package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vitos/solidity_screener/internal/domain"
	"go.uber.org/zap"
)

// --- WebSocket ---

type klineMessage struct {
	EventType string `json:"e"`
	Kline     struct {
		OpenTime int64  `json:"t"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
	} `json:"k"`
}

// parseKlineMessage returns ok=false for events other than klines.
func parseKlineMessage(message []byte) (domain.Candle, bool, error) {
	var msg klineMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return domain.Candle{}, false, fmt.Errorf("%w: decode stream message: %w", domain.ErrParse, err)
	}
	if msg.EventType != "kline" {
		return domain.Candle{}, false, nil
	}

	k := msg.Kline
	candle, err := buildCandle(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
	if err != nil {
		return domain.Candle{}, false, err
	}
	return candle, true, nil
}

type klineSubscription struct {
	conn      *websocket.Conn
	symbol    string
	candles   chan domain.Candle
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger

	mu  sync.Mutex
	err error
}

// SubscribeKlines opens <symbol>@kline_<interval>. The feed ends when ctx is
// cancelled, Close is called or the connection drops.
func (b *BinanceAdapter) SubscribeKlines(ctx context.Context, symbol, interval string) (domain.KlineSubscription, error) {
	endpoint := fmt.Sprintf("%s/%s@kline_%s", b.wsURL, strings.ToLower(symbol), interval)
	conn, _, err := b.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", domain.ErrStream, endpoint, err)
	}
	b.logger.Info("Kline stream connected", zap.String("symbol", symbol), zap.String("interval", interval))

	s := &klineSubscription{
		conn:    conn,
		symbol:  symbol,
		candles: make(chan domain.Candle, 64),
		done:    make(chan struct{}),
		logger:  b.logger,
	}

	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

func (s *klineSubscription) Candles() <-chan domain.Candle { return s.candles }

func (s *klineSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *klineSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = s.conn.Close()
	})
	return err
}

func (s *klineSubscription) readLoop() {
	defer close(s.candles)

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warn("Kline stream read error", zap.String("symbol", s.symbol), zap.Error(err))
				s.mu.Lock()
				s.err = fmt.Errorf("%w: %s: %w", domain.ErrStream, s.symbol, err)
				s.mu.Unlock()
				s.conn.Close()
			}
			return
		}

		candle, ok, err := parseKlineMessage(message)
		if err != nil {
			s.logger.Warn("Skipping malformed kline message", zap.String("symbol", s.symbol), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		select {
		case s.candles <- candle:
		case <-s.done:
			return
		}
	}
}
