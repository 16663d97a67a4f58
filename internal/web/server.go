package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vitos/solidity_screener/internal/domain"
	"github.com/vitos/solidity_screener/internal/usecase"
	"go.uber.org/zap"
)

// Defaults fill query parameters the client leaves out.
type Defaults struct {
	MinVolume float64
	Ratio     float64
	Interval  string
	Limit     int
}

type Server struct {
	router   *http.ServeMux
	server   *http.Server
	lister   *usecase.InstrumentLister
	analyzer *usecase.SolidityAnalyzer
	scanner  *usecase.BatchScanner
	streamer *usecase.KlineStreamer
	scanRepo domain.ScanRepository
	metrics  http.Handler
	defaults Defaults
	logger   *zap.Logger
}

// NewServer wires the HTTP surface. scanRepo and metrics may be nil.
func NewServer(
	port int,
	lister *usecase.InstrumentLister,
	analyzer *usecase.SolidityAnalyzer,
	scanner *usecase.BatchScanner,
	streamer *usecase.KlineStreamer,
	scanRepo domain.ScanRepository,
	metrics http.Handler,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:   http.NewServeMux(),
		lister:   lister,
		analyzer: analyzer,
		scanner:  scanner,
		streamer: streamer,
		scanRepo: scanRepo,
		metrics:  metrics,
		defaults: defaults,
		logger:   logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Instruments
	s.router.HandleFunc("GET /api/symbols", s.handleSymbols)

	// Order book
	s.router.HandleFunc("GET /api/solidity", s.handleSolidity)

	// Scans
	s.router.HandleFunc("GET /api/scan", s.handleScan)
	s.router.HandleFunc("GET /api/scans", s.handleListScans)

	// Candles
	s.router.HandleFunc("GET /api/candles", s.handleGetCandles)
	s.router.HandleFunc("GET /ws/klines", s.handleKlineStream)

	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics)
	}
}

// Handler returns the router wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	return requestID(s.recoverPanics(s.logRequests(s.router)))
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
