package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vitos/solidity_screener/internal/config"
	"github.com/vitos/solidity_screener/internal/infrastructure/exchange"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Binance Interaction...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Exchange.RESTEndpoint)

	adapter := exchange.NewBinanceAdapter(cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, cfg.Exchange.HTTPTimeout, zap.NewNop())
	ctx := context.Background()
	failed := false

	// 2. Check Ticker
	ticker, err := adapter.GetTicker(ctx, "BTCUSDT")
	if err != nil {
		fmt.Printf("❌ Failed to get ticker: %v\n", err)
		failed = true
	} else {
		fmt.Printf("✅ 24h Quote Volume (BTCUSDT): %.2f\n", ticker.QuoteVolume)
	}

	// 3. Check Klines
	candles, err := adapter.GetCandles(ctx, "BTCUSDT", cfg.Klines.Interval, 5)
	if err != nil {
		fmt.Printf("❌ Failed to get klines: %v\n", err)
		failed = true
	} else {
		fmt.Printf("✅ Got %d klines (%s)\n", len(candles), cfg.Klines.Interval)
	}

	// 4. Check Stream
	streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	sub, err := adapter.SubscribeKlines(streamCtx, "BTCUSDT", cfg.Klines.Interval)
	if err != nil {
		fmt.Printf("❌ Failed to subscribe: %v\n", err)
		failed = true
	} else {
		select {
		case c, ok := <-sub.Candles():
			if ok {
				fmt.Printf("✅ Live kline: open %s close %.2f\n", c.OpenTime.Format(time.RFC3339), c.Close)
			} else {
				fmt.Printf("❌ Stream ended: %v\n", sub.Err())
				failed = true
			}
		case <-streamCtx.Done():
			fmt.Printf("❌ No kline within 10s\n")
			failed = true
		}
		sub.Close()
	}

	if failed {
		os.Exit(1)
	}
}
