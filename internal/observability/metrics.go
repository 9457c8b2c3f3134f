package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the scoring pipeline.
type Metrics struct {
	SubmissionsConsumed prometheus.Counter
	ReportsProduced     prometheus.Counter
	ScoreErrors         prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Scoring metrics.
	ScoringDuration *prometheus.HistogramVec // label: scorer
	QualityScore    *prometheus.HistogramVec // label: scorer
	MatchedPairs    *prometheus.CounterVec   // label: scorer
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SubmissionsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_score",
			Name:      "submissions_consumed_total",
			Help:      "Total submissions read from the source topic.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_score",
			Name:      "reports_produced_total",
			Help:      "Total score reports written to the sink topic.",
		}),
		ScoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_score",
			Name:      "score_errors_total",
			Help:      "Total submissions that failed scoring.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warning_score",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "warning_score",
			Name:      "batch_size",
			Help:      "Number of submissions per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "warning_score",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-score-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ScoringDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "warning_score",
			Name:      "scoring_duration_seconds",
			Help:      "Duration of one scorer run over one submission.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"scorer"}),
		QualityScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "warning_score",
			Name:      "quality_score",
			Help:      "Aggregate quality scores produced per scorer.",
			Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}, []string{"scorer"}),
		MatchedPairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warning_score",
			Name:      "matched_pairs_total",
			Help:      "Warning/event pairs matched per scorer.",
		}, []string{"scorer"}),
	}

	prometheus.MustRegister(
		m.SubmissionsConsumed,
		m.ReportsProduced,
		m.ScoreErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ScoringDuration,
		m.QualityScore,
		m.MatchedPairs,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SubmissionsConsumed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "warning_score", Name: "submissions_consumed_total"}),
		ReportsProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "warning_score", Name: "reports_produced_total"}),
		ScoreErrors:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "warning_score", Name: "score_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "warning_score", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "warning_score", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "warning_score", Name: "batch_processing_duration_seconds"}),
		ScoringDuration:         prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "warning_score", Name: "scoring_duration_seconds"}, []string{"scorer"}),
		QualityScore:            prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "warning_score", Name: "quality_score"}, []string{"scorer"}),
		MatchedPairs:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "warning_score", Name: "matched_pairs_total"}, []string{"scorer"}),
	}
}
