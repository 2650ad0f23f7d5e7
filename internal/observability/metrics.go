package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "envirocar_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the export run.
type Metrics struct {
	DocumentsTotal    prometheus.Gauge
	DocumentsRead     prometheus.Counter
	DocumentsSkipped  prometheus.Counter
	RowsWritten       prometheus.Counter
	UnknownPhenomena  prometheus.Counter
	PhenomenaObserved prometheus.Gauge

	// Run lifecycle metrics.
	PipelineState *prometheus.GaugeVec // labels: state={discovering,...,done,failed}
	RunDuration   prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DocumentsTotal,
		m.DocumentsRead,
		m.DocumentsSkipped,
		m.RowsWritten,
		m.UnknownPhenomena,
		m.PhenomenaObserved,
		m.PipelineState,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DocumentsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents matching the source query, counted before iteration.",
		}),
		DocumentsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_read_total",
			Help:      "Total measurement documents read from the source cursor.",
		}),
		DocumentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_skipped_total",
			Help:      "Total malformed measurement documents skipped.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total rows written to the COPY stream.",
		}),
		UnknownPhenomena: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_phenomena_total",
			Help:      "Observations whose phenomenon is not a column of the destination table.",
		}),
		PhenomenaObserved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phenomena_discovered",
			Help:      "Number of distinct phenomena discovered in the source.",
		}),
		PipelineState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_state",
			Help:      "1 for the state the pipeline is currently in, 0 otherwise.",
		}, []string{"state"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete export run.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200},
		}),
	}
}
