package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/solidity_screener/internal/domain"
	"go.uber.org/zap"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *BinanceAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBinanceAdapter(srv.URL, "ws"+strings.TrimPrefix(srv.URL, "http"), time.Second, zap.NewNop())
}

func TestGetTickers(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ticker/24hr", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("symbol"))
		w.Write([]byte(`[
			{"symbol":"ABCUSDT","quoteVolume":"5000000.5","lastPrice":"1.0"},
			{"symbol":"XYZBTC","quoteVolume":"9000000"},
			{"symbol":"DEFUSDT","quoteVolume":"100"}
		]`))
	})

	tickers, err := adapter.GetTickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Ticker{
		{Symbol: "ABCUSDT", QuoteVolume: 5000000.5},
		{Symbol: "XYZBTC", QuoteVolume: 9000000},
		{Symbol: "DEFUSDT", QuoteVolume: 100},
	}, tickers)
}

func TestGetTicker_Single(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ABCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"ABCUSDT","quoteVolume":"1234.5"}`))
	})

	ticker, err := adapter.GetTicker(context.Background(), "ABCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, ticker.QuoteVolume)
}

func TestGetTickers_BadNumber(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"ABCUSDT","quoteVolume":"lots"}]`))
	})

	_, err := adapter.GetTickers(context.Background())
	assert.True(t, errors.Is(err, domain.ErrParse), "got %v", err)
}

func TestSendRequest_NonSuccessStatus(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1003,"msg":"Too many requests"}`, http.StatusTooManyRequests)
	})

	_, err := adapter.GetOrderBook(context.Background(), "ABCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.Contains(t, err.Error(), "429")
}

func TestSendRequest_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	adapter := NewBinanceAdapter(url, "", time.Second, zap.NewNop())
	_, err := adapter.GetTickers(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestGetOrderBook(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/depth", r.URL.Path)
		assert.Equal(t, "ABCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"lastUpdateId": 1027024,
			"bids": [["4.00000000","431.00000000"],["3.90000000","12.50000000"]],
			"asks": [["4.00000200","12.00000000"]]
		}`))
	})

	ob, err := adapter.GetOrderBook(context.Background(), "ABCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "ABCUSDT", ob.Symbol)
	assert.Equal(t, []domain.OrderBookEntry{{Price: 4, Size: 431}, {Price: 3.9, Size: 12.5}}, ob.Bids)
	assert.Equal(t, []domain.OrderBookEntry{{Price: 4.000002, Size: 12}}, ob.Asks)
}

func TestGetOrderBook_MalformedLevel(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bids":[["4.0"]],"asks":[]}`))
	})

	_, err := adapter.GetOrderBook(context.Background(), "ABCUSDT")
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestGetCandles(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1m", q.Get("interval"))
		assert.Equal(t, "2", q.Get("limit"))
		w.Write([]byte(`[
			[1499040000000,"0.01634790","0.80000000","0.01575800","0.01577100","148976.11427815",1499644799999,"2434.19055334",308,"1756.87402397","28.46694368","0"],
			[1499040060000,"0.01577100","0.01600000","0.01570000","0.01590000","100.5",1499040119999,"1.6",10,"50","0.8","0"]
		]`))
	})

	candles, err := adapter.GetCandles(context.Background(), "BTCUSDT", "1m", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.UnixMilli(1499040000000).UTC(), candles[0].OpenTime)
	assert.Equal(t, 0.0163479, candles[0].Open)
	assert.Equal(t, 0.8, candles[0].High)
	assert.Equal(t, 0.015758, candles[0].Low)
	assert.Equal(t, 0.015771, candles[0].Close)
	assert.Equal(t, 148976.11427815, candles[0].Volume)
	assert.True(t, candles[1].OpenTime.After(candles[0].OpenTime))
}

func TestGetCandles_ShortRow(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1499040000000,"1","2"]]`))
	})

	_, err := adapter.GetCandles(context.Background(), "BTCUSDT", "1m", 1)
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestParseKlineMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantOK  bool
		wantErr bool
	}{
		{
			name:    "kline",
			message: `{"e":"kline","E":1672515782136,"s":"BNBBTC","k":{"t":1672515780000,"T":1672515839999,"s":"BNBBTC","i":"1m","o":"0.0010","c":"0.0020","h":"0.0025","l":"0.0015","v":"1000","x":false}}`,
			wantOK:  true,
		},
		{
			name:    "other event",
			message: `{"e":"24hrTicker","s":"BNBBTC"}`,
		},
		{
			name:    "bad json",
			message: `{"e":`,
			wantErr: true,
		},
		{
			name:    "bad number",
			message: `{"e":"kline","k":{"t":1,"o":"x","c":"1","h":"1","l":"1","v":"1"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candle, ok, err := parseKlineMessage([]byte(tt.message))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, time.UnixMilli(1672515780000).UTC(), candle.OpenTime)
				assert.Equal(t, 0.002, candle.Close)
				assert.Equal(t, 0.0025, candle.High)
			}
		})
	}
}

var upgrader = websocket.Upgrader{}

func TestSubscribeKlines(t *testing.T) {
	release := make(chan struct{})
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/btcusdt@kline_1m", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		msgs := []string{
			`{"e":"kline","k":{"t":1672515780000,"o":"1","c":"2","h":"3","l":"0.5","v":"10"}}`,
			`{"result":null,"id":1}`,
			`garbage`,
			`{"e":"kline","k":{"t":1672515780000,"o":"1","c":"2.5","h":"3","l":"0.5","v":"12"}}`,
		}
		for _, m := range msgs {
			conn.WriteMessage(websocket.TextMessage, []byte(m))
		}
		<-release
	})
	defer close(release)

	sub, err := adapter.SubscribeKlines(context.Background(), "BTCUSDT", "1m")
	require.NoError(t, err)
	defer sub.Close()

	var got []domain.Candle
	for len(got) < 2 {
		select {
		case c, ok := <-sub.Candles():
			require.True(t, ok)
			got = append(got, c)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for candles")
		}
	}

	assert.Equal(t, 2.0, got[0].Close)
	assert.Equal(t, 2.5, got[1].Close)
	assert.Equal(t, got[0].OpenTime, got[1].OpenTime)
}

func TestSubscribeKlines_DropSetsErr(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	})

	sub, err := adapter.SubscribeKlines(context.Background(), "BTCUSDT", "1m")
	require.NoError(t, err)

	select {
	case _, ok := <-sub.Candles():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not end")
	}
	assert.ErrorIs(t, sub.Err(), domain.ErrStream)
}

func TestSubscribeKlines_CloseIsClean(t *testing.T) {
	release := make(chan struct{})
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := adapter.SubscribeKlines(ctx, "BTCUSDT", "1m")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sub.Candles():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not end on cancel")
	}
	assert.NoError(t, sub.Err())
}

func TestSubscribeKlines_DialFailure(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no upgrade", http.StatusBadRequest)
	})

	_, err := adapter.SubscribeKlines(context.Background(), "BTCUSDT", "1m")
	assert.ErrorIs(t, err, domain.ErrStream)
}
