package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/solidity_screener/internal/domain"
	"go.uber.org/zap"
)

// DefaultGroupSize bounds the analyses in flight so the exchange rate limit holds.
const DefaultGroupSize = 30

type SymbolLister interface {
	ListEligibleSymbols(ctx context.Context, minVolume float64) ([]string, error)
}

type Analyzer interface {
	AnalyzeSolidity(ctx context.Context, symbol string, ratio float64) (*domain.SolidityResult, error)
}

type ScannerConfig struct {
	GroupSize      int
	RequestTimeout time.Duration // per symbol; zero disables
}

type BatchScanner struct {
	lister   SymbolLister
	analyzer Analyzer
	repo     domain.ScanRepository
	metrics  Metrics
	logger   *zap.Logger
	cfg      ScannerConfig
	newID    func() string
	timeNow  func() time.Time // For testing
}

// NewBatchScanner builds a scanner. repo may be nil to skip the journal.
func NewBatchScanner(lister SymbolLister, analyzer Analyzer, repo domain.ScanRepository, metrics Metrics, logger *zap.Logger, cfg ScannerConfig) *BatchScanner {
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = DefaultGroupSize
	}
	return &BatchScanner{
		lister:   lister,
		analyzer: analyzer,
		repo:     repo,
		metrics:  metricsOrNop(metrics),
		logger:   logger,
		cfg:      cfg,
		newID:    uuid.NewString,
		timeNow:  time.Now,
	}
}

// Partition splits symbols into consecutive groups of at most size.
func Partition(symbols []string, size int) [][]string {
	if size <= 0 {
		size = DefaultGroupSize
	}
	groups := make([][]string, 0, (len(symbols)+size-1)/size)
	for i := 0; i < len(symbols); i += size {
		end := min(i+size, len(symbols))
		groups = append(groups, symbols[i:end])
	}
	return groups
}

// ScanAllSymbols analyses every eligible symbol and returns those that produced
// a result. The first failed analysis aborts the scan once its group has joined.
func (s *BatchScanner) ScanAllSymbols(ctx context.Context, minVolume, ratio float64) ([]string, error) {
	symbols, err := s.lister.ListEligibleSymbols(ctx, minVolume)
	if err != nil {
		return nil, err
	}

	accepted := make([]string, 0, len(symbols))
	for _, group := range Partition(symbols, s.cfg.GroupSize) {
		for _, o := range s.scanGroup(ctx, group, ratio) {
			if o.Err != nil {
				return nil, fmt.Errorf("analyze %s: %w", o.Symbol, o.Err)
			}
			if o.Result != nil {
				accepted = append(accepted, o.Symbol)
			}
		}
	}
	return accepted, nil
}

// Scan analyses every eligible symbol and keeps failures per symbol, so one bad
// symbol does not lose the rest of the scan. Only a listing failure or a
// cancelled ctx fails the whole scan.
func (s *BatchScanner) Scan(ctx context.Context, minVolume, ratio float64) (*domain.ScanReport, error) {
	started := s.timeNow()

	symbols, err := s.lister.ListEligibleSymbols(ctx, minVolume)
	if err != nil {
		return nil, err
	}

	groups := Partition(symbols, s.cfg.GroupSize)
	report := &domain.ScanReport{
		ID:        s.newID(),
		StartedAt: started.UTC(),
		MinVolume: minVolume,
		Ratio:     ratio,
		Groups:    len(groups),
		Outcomes:  make([]domain.ScanOutcome, 0, len(symbols)),
	}

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan cancelled after %d of %d groups: %w", i, len(groups), err)
		}
		report.Outcomes = append(report.Outcomes, s.scanGroup(ctx, group, ratio)...)
		s.logger.Debug("Scan group finished", zap.Int("group", i+1), zap.Int("groups", len(groups)))
	}
	// A cancel during the last group leaves only cancelled outcomes behind.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	report.Duration = s.timeNow().Sub(started)
	s.metrics.RecordScan(report.Groups, report.Duration)

	failed := report.Failed()
	for _, o := range failed {
		s.logger.Warn("Symbol analysis failed", zap.String("symbol", o.Symbol), zap.Error(o.Err))
	}
	s.logger.Info("Scan finished",
		zap.String("id", report.ID),
		zap.Int("symbols", len(symbols)),
		zap.Int("groups", report.Groups),
		zap.Int("signals", len(report.WithSignal())),
		zap.Int("failed", len(failed)),
		zap.Duration("took", report.Duration))

	if s.repo != nil {
		if err := s.repo.SaveScanReport(ctx, report); err != nil {
			s.logger.Error("Failed to save scan report", zap.String("id", report.ID), zap.Error(err))
		}
	}

	return report, nil
}

// scanGroup analyses all symbols of a group concurrently and waits for all of them.
// Outcomes keep the group's order.
func (s *BatchScanner) scanGroup(ctx context.Context, group []string, ratio float64) []domain.ScanOutcome {
	outcomes := make([]domain.ScanOutcome, len(group))

	var wg sync.WaitGroup
	for i, symbol := range group {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()

			reqCtx, cancel := s.requestContext(ctx)
			defer cancel()

			result, err := s.analyzer.AnalyzeSolidity(reqCtx, symbol, ratio)
			outcomes[i] = domain.ScanOutcome{Symbol: symbol, Result: result, Err: err}
		}(i, symbol)
	}
	wg.Wait()

	return outcomes
}

func (s *BatchScanner) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
