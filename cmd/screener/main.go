package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitos/solidity_screener/internal/config"
	"github.com/vitos/solidity_screener/internal/domain"
	"github.com/vitos/solidity_screener/internal/infrastructure/exchange"
	"github.com/vitos/solidity_screener/internal/infrastructure/logger"
	"github.com/vitos/solidity_screener/internal/infrastructure/metrics"
	"github.com/vitos/solidity_screener/internal/infrastructure/storage"
	"github.com/vitos/solidity_screener/internal/usecase"
	"github.com/vitos/solidity_screener/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage (optional scan journal)
	var scanRepo domain.ScanRepository
	if path := cfg.JournalPath(); path != "" {
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			log.Fatal("Failed to init sqlite", zap.String("path", path), zap.Error(err))
		}
		defer store.Close()
		scanRepo = store
	} else {
		log.Info("Scan journal disabled")
	}

	// 4. Init Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	// 5. Init Exchange (Binance)
	binance := exchange.NewBinanceAdapter(cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, cfg.Exchange.HTTPTimeout, log)

	// 6. Init Services
	lister := usecase.NewInstrumentLister(binance, cfg.Screener.QuoteAsset)
	analyzer := usecase.NewSolidityAnalyzer(binance, recorder, log)
	scanner := usecase.NewBatchScanner(lister, analyzer, scanRepo, recorder, log, usecase.ScannerConfig{
		GroupSize:      cfg.Screener.GroupSize,
		RequestTimeout: cfg.Screener.RequestTimeout,
	})
	streamer := usecase.NewKlineStreamer(binance, recorder, log)

	// 7. Init Web Server
	server := web.NewServer(
		cfg.Server.Port,
		lister,
		analyzer,
		scanner,
		streamer,
		scanRepo,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		web.Defaults{
			MinVolume: cfg.MinVolume(),
			Ratio:     cfg.Screener.Ratio,
			Interval:  cfg.Klines.Interval,
			Limit:     cfg.Klines.Limit,
		},
		log,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	log.Info("Screener started",
		zap.Int("port", cfg.Server.Port),
		zap.String("quote_asset", cfg.Screener.QuoteAsset),
		zap.Float64("min_volume", cfg.MinVolume()),
		zap.Float64("ratio", cfg.Screener.Ratio))

	// 8. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
