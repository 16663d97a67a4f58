package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/solidity_screener/internal/domain"
	"github.com/vitos/solidity_screener/internal/usecase"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type snapshotMessage struct {
	Type     string          `json:"type"`
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"`
	Candles  []domain.Candle `json:"candles"`
}

type klineEventMessage struct {
	Type   string         `json:"type"`
	Candle *domain.Candle `json:"candle,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// handleKlineStream relays a live candle feed to a browser: one snapshot
// message with the initial candles, then one message per KlineEvent.
func (s *Server) handleKlineStream(w http.ResponseWriter, r *http.Request) {
	symbol, interval, limit, ok := s.klineParams(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Client frames are ignored; a read error means the client is gone.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	stream := s.streamer.StreamKlines(ctx, symbol, interval, limit)
	defer stream.Close()

	initial := stream.Initial
	if initial == nil {
		initial = []domain.Candle{}
	}
	snapshot := snapshotMessage{Type: "snapshot", Symbol: symbol, Interval: interval, Candles: initial}
	if err := s.writeMessage(conn, snapshot); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-stream.Events:
			if !ok {
				err := conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"),
					time.Now().Add(writeWait))
				if err != nil {
					s.logger.Debug("Kline relay close failed", zap.String("symbol", symbol), zap.Error(err))
				}
				return
			}
			if err := s.writeMessage(conn, eventMessage(ev)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func eventMessage(ev usecase.KlineEvent) klineEventMessage {
	msg := klineEventMessage{Type: string(ev.Kind)}
	if ev.Kind == usecase.KlineFailed {
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
		return msg
	}
	candle := ev.Candle
	msg.Candle = &candle
	return msg
}

func (s *Server) writeMessage(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		s.logger.Debug("Kline relay write failed", zap.Error(err))
		return err
	}
	return nil
}
