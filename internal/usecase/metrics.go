package usecase

import (
	"time"

	"github.com/vitos/solidity_screener/internal/domain"
)

// Metrics receives screener activity. *metrics.Recorder implements it.
type Metrics interface {
	RecordAnalysis(result *domain.SolidityResult, err error)
	RecordScan(groups int, took time.Duration)
	RecordStreamEvent(kind string)
}

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(*domain.SolidityResult, error) {}

func (nopMetrics) RecordScan(int, time.Duration) {}

func (nopMetrics) RecordStreamEvent(string) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
