package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/solidity_screener/internal/config"
	"github.com/vitos/solidity_screener/internal/domain"
	"github.com/vitos/solidity_screener/internal/infrastructure/exchange"
	"github.com/vitos/solidity_screener/internal/infrastructure/logger"
	"github.com/vitos/solidity_screener/internal/infrastructure/storage"
	"github.com/vitos/solidity_screener/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	minVolume := flag.Float64("min-volume", -1, "24h quote volume floor (default from config)")
	ratio := flag.Float64("ratio", -1, "concentration threshold in percent (default from config)")
	legacy := flag.Bool("legacy", false, "abort on the first failed symbol and print accepted symbols only")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	journal := flag.Bool("journal", false, "save the report to the configured scan journal")
	logFile := flag.String("log-file", "", "write logs to this file instead of stderr")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		cfg = config.Default()
	}
	if *minVolume >= 0 {
		cfg.Screener.MinVolume = minVolume
	}
	if *ratio > 0 {
		cfg.Screener.Ratio = *ratio
	}

	var log *zap.Logger
	if *logFile != "" {
		log, err = logger.NewFileLogger(*logFile, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var scanRepo domain.ScanRepository
	if *journal && cfg.JournalPath() != "" {
		store, err := storage.NewSQLiteStore(cfg.JournalPath())
		if err != nil {
			log.Fatal("Failed to init sqlite", zap.Error(err))
		}
		defer store.Close()
		scanRepo = store
	}

	binance := exchange.NewBinanceAdapter(cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, cfg.Exchange.HTTPTimeout, log)
	lister := usecase.NewInstrumentLister(binance, cfg.Screener.QuoteAsset)
	analyzer := usecase.NewSolidityAnalyzer(binance, nil, log)
	scanner := usecase.NewBatchScanner(lister, analyzer, scanRepo, nil, log, usecase.ScannerConfig{
		GroupSize:      cfg.Screener.GroupSize,
		RequestTimeout: cfg.Screener.RequestTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *legacy {
		symbols, err := scanner.ScanAllSymbols(ctx, cfg.MinVolume(), cfg.Screener.Ratio)
		if err != nil {
			fmt.Printf("Scan failed: %v\n", err)
			os.Exit(1)
		}
		for _, s := range symbols {
			fmt.Println(s)
		}
		return
	}

	report, err := scanner.Scan(ctx, cfg.MinVolume(), cfg.Screener.Ratio)
	if err != nil {
		fmt.Printf("Scan failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Printf("Failed to encode report: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printReport(report)
}

func printReport(report *domain.ScanReport) {
	fmt.Printf("Scan %s: %d symbols in %d groups, %s\n",
		report.ID, len(report.Outcomes), report.Groups, report.Duration.Round(time.Millisecond))
	fmt.Printf("min volume %.0f, ratio %.1f%%\n\n", report.MinVolume, report.Ratio)

	signals := report.WithSignal()
	if len(signals) == 0 {
		fmt.Println("No solidity found.")
	}
	for _, r := range signals {
		fmt.Printf("%-14s qv=%-16.2f asks=%-14.4f bids=%-14.4f", r.Symbol, r.QuoteVolume, r.BuyVolume, r.SellVolume)
		if r.SolidityLong != nil {
			fmt.Printf(" LONG %.8g x %.4f", r.SolidityLong.Price, r.SolidityLong.Volume)
		}
		if r.SolidityShort != nil {
			fmt.Printf(" SHORT %.8g x %.4f", r.SolidityShort.Price, r.SolidityShort.Volume)
		}
		fmt.Println()
	}

	if failed := report.Failed(); len(failed) > 0 {
		fmt.Printf("\n%d symbols failed:\n", len(failed))
		for _, o := range failed {
			fmt.Printf("  %s: %v\n", o.Symbol, o.Err)
		}
	}
}
