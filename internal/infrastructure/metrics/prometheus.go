package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vitos/solidity_screener/internal/domain"
)

// Recorder exports screener activity as Prometheus series.
type Recorder struct {
	scans        prometheus.Counter
	scanDuration prometheus.Histogram
	scanGroups   prometheus.Gauge
	analyses     *prometheus.CounterVec
	signals      *prometheus.CounterVec
	streamEvents *prometheus.CounterVec
	quoteVolume  *prometheus.GaugeVec
}

// New registers the screener series on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		scans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "scans_total",
			Help:      "Total number of completed scans",
		}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "screener",
			Name:      "scan_duration_seconds",
			Help:      "Duration of full universe scans in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		scanGroups: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "screener",
			Name:      "scan_groups",
			Help:      "Number of groups in the last scan",
		}),
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "analyses_total",
			Help:      "Order book analyses by outcome",
		}, []string{"outcome"}),
		signals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "signals_total",
			Help:      "Solidity signals found by side",
		}, []string{"side"}),
		streamEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "kline_events_total",
			Help:      "Kline stream events by kind",
		}, []string{"kind"}),
		quoteVolume: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "screener",
			Name:      "quote_volume",
			Help:      "Last observed 24h quote volume of an analysed symbol",
		}, []string{"symbol"}),
	}
}

// RecordAnalysis counts one order book analysis.
func (r *Recorder) RecordAnalysis(result *domain.SolidityResult, err error) {
	switch {
	case err == nil:
		r.analyses.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrParse):
		r.analyses.WithLabelValues("parse_error").Inc()
	default:
		r.analyses.WithLabelValues("network_error").Inc()
	}
	if result == nil {
		return
	}
	r.quoteVolume.WithLabelValues(result.Symbol).Set(result.QuoteVolume)
	if result.SolidityLong != nil {
		r.signals.WithLabelValues("long").Inc()
	}
	if result.SolidityShort != nil {
		r.signals.WithLabelValues("short").Inc()
	}
}

// RecordScan records a completed scan.
func (r *Recorder) RecordScan(groups int, took time.Duration) {
	r.scans.Inc()
	r.scanGroups.Set(float64(groups))
	r.scanDuration.Observe(took.Seconds())
}

// RecordStreamEvent counts a kline stream event.
func (r *Recorder) RecordStreamEvent(kind string) {
	r.streamEvents.WithLabelValues(kind).Inc()
}
