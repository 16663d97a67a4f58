package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/solidity_screener/internal/domain"
	"go.uber.org/zap"
)

const (
	BinanceBaseURL = "https://api.binance.com/api/v3"
	BinanceWSURL   = "wss://stream.binance.com:9443/ws"
)

type BinanceAdapter struct {
	baseURL string
	wsURL   string
	client  *http.Client
	dialer  *websocket.Dialer
	logger  *zap.Logger
}

func NewBinanceAdapter(baseURL, wsURL string, timeout time.Duration, logger *zap.Logger) *BinanceAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BinanceAdapter{
		baseURL: baseURL,
		wsURL:   wsURL,
		client:  &http.Client{Timeout: timeout},
		dialer:  &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		logger:  logger,
	}
}

// --- REST API ---

func (b *BinanceAdapter) sendRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := b.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %s: %w", domain.ErrNetwork, path, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrNetwork, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrNetwork, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: status %d: %s", domain.ErrNetwork, path, resp.StatusCode, string(body))
	}

	return body, nil
}

type rawTicker struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
}

func (r rawTicker) toDomain() (domain.Ticker, error) {
	volume, err := parseFloat(r.QuoteVolume, "quoteVolume")
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("ticker %s: %w", r.Symbol, err)
	}
	return domain.Ticker{Symbol: r.Symbol, QuoteVolume: volume}, nil
}

// GetTickers returns every 24h ticker in the order the exchange sends them.
func (b *BinanceAdapter) GetTickers(ctx context.Context) ([]domain.Ticker, error) {
	resp, err := b.sendRequest(ctx, "/ticker/24hr", nil)
	if err != nil {
		return nil, err
	}

	var raw []rawTicker
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode tickers: %w", domain.ErrParse, err)
	}

	tickers := make([]domain.Ticker, 0, len(raw))
	for _, r := range raw {
		t, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, nil
}

func (b *BinanceAdapter) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	resp, err := b.sendRequest(ctx, "/ticker/24hr", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var raw rawTicker
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode ticker %s: %w", domain.ErrParse, symbol, err)
	}

	t, err := raw.toDomain()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (b *BinanceAdapter) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	resp, err := b.sendRequest(ctx, "/depth", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var result struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("%w: decode depth %s: %w", domain.ErrParse, symbol, err)
	}

	bids, err := parseLevels(result.Bids)
	if err != nil {
		return nil, fmt.Errorf("depth %s bids: %w", symbol, err)
	}
	asks, err := parseLevels(result.Asks)
	if err != nil {
		return nil, fmt.Errorf("depth %s asks: %w", symbol, err)
	}

	return &domain.OrderBook{Symbol: symbol, Bids: bids, Asks: asks}, nil
}

func parseLevels(raw [][]string) ([]domain.OrderBookEntry, error) {
	levels := make([]domain.OrderBookEntry, 0, len(raw))
	for _, level := range raw {
		if len(level) < 2 {
			return nil, fmt.Errorf("%w: price level has %d fields", domain.ErrParse, len(level))
		}
		price, err := parseFloat(level[0], "price")
		if err != nil {
			return nil, err
		}
		size, err := parseFloat(level[1], "size")
		if err != nil {
			return nil, err
		}
		levels = append(levels, domain.OrderBookEntry{Price: price, Size: size})
	}
	return levels, nil
}

// GetCandles returns the most recent klines, oldest first.
func (b *BinanceAdapter) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	query := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	resp, err := b.sendRequest(ctx, "/klines", query)
	if err != nil {
		return nil, err
	}

	// Format: [openTime, open, high, low, close, volume, closeTime, ...]
	var rows [][]json.RawMessage
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode klines %s: %w", domain.ErrParse, symbol, err)
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("klines %s: %w", symbol, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseKlineRow(row []json.RawMessage) (domain.Candle, error) {
	if len(row) < 6 {
		return domain.Candle{}, fmt.Errorf("%w: kline row has %d fields", domain.ErrParse, len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return domain.Candle{}, fmt.Errorf("%w: open time: %w", domain.ErrParse, err)
	}

	var fields [5]string
	for i := range fields {
		if err := json.Unmarshal(row[i+1], &fields[i]); err != nil {
			return domain.Candle{}, fmt.Errorf("%w: kline field %d: %w", domain.ErrParse, i+1, err)
		}
	}

	return buildCandle(openTime, fields[0], fields[1], fields[2], fields[3], fields[4])
}

func buildCandle(openTime int64, open, high, low, closePrice, volume string) (domain.Candle, error) {
	c := domain.Candle{OpenTime: time.UnixMilli(openTime).UTC()}
	var err error
	if c.Open, err = parseFloat(open, "open"); err != nil {
		return domain.Candle{}, err
	}
	if c.High, err = parseFloat(high, "high"); err != nil {
		return domain.Candle{}, err
	}
	if c.Low, err = parseFloat(low, "low"); err != nil {
		return domain.Candle{}, err
	}
	if c.Close, err = parseFloat(closePrice, "close"); err != nil {
		return domain.Candle{}, err
	}
	if c.Volume, err = parseFloat(volume, "volume"); err != nil {
		return domain.Candle{}, err
	}
	return c, nil
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", domain.ErrParse, field, s, err)
	}
	return v, nil
}
