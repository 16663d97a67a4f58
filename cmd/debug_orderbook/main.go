package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/vitos/solidity_screener/internal/infrastructure/exchange"
	"github.com/vitos/solidity_screener/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	symbol := flag.String("symbol", "BTCUSDT", "symbol to inspect")
	ratio := flag.Float64("ratio", 30, "concentration threshold in percent")
	flag.Parse()

	adapter := exchange.NewBinanceAdapter(exchange.BinanceBaseURL, exchange.BinanceWSURL, 0, zap.NewNop())
	ctx := context.Background()

	fmt.Printf("Fetching Order Book for %s...\n", *symbol)
	ob, err := adapter.GetOrderBook(ctx, *symbol)
	if err != nil {
		log.Fatalf("Error fetching order book: %v", err)
	}

	fmt.Printf("Order Book: %d Bids, %d Asks\n", len(ob.Bids), len(ob.Asks))
	if len(ob.Bids) > 0 {
		fmt.Printf("Best Bid: %.8g (Size: %.4f)\n", ob.Bids[0].Price, ob.Bids[0].Size)
	}
	if len(ob.Asks) > 0 {
		fmt.Printf("Best Ask: %.8g (Size: %.4f)\n", ob.Asks[0].Price, ob.Asks[0].Size)
	}

	analyzer := usecase.NewSolidityAnalyzer(adapter, nil, zap.NewNop())
	result, err := analyzer.AnalyzeSolidity(ctx, *symbol, *ratio)
	if err != nil {
		log.Fatalf("Error analyzing solidity: %v", err)
	}

	fmt.Printf("\nQuote Volume (24h): %.2f\n", result.QuoteVolume)
	fmt.Printf("Ask Total: %.4f, Bid Total: %.4f\n", result.BuyVolume, result.SellVolume)
	if result.SolidityLong != nil {
		fmt.Printf("Long solidity: %.8g x %.4f (%.1f%% of asks)\n",
			result.SolidityLong.Price, result.SolidityLong.Volume, share(result.SolidityLong.Volume, result.BuyVolume))
	}
	if result.SolidityShort != nil {
		fmt.Printf("Short solidity: %.8g x %.4f (%.1f%% of bids)\n",
			result.SolidityShort.Price, result.SolidityShort.Volume, share(result.SolidityShort.Volume, result.SellVolume))
	}
	if !result.HasSignal() {
		fmt.Printf("No level holds more than %.1f%% of its side.\n", *ratio)
	}
}

func share(volume, total float64) float64 {
	if total == 0 {
		return 0
	}
	return volume / total * 100
}
