package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// undercount pipeline.
type Metrics struct {
	RowsIngested     prometheus.Counter
	RegionsProcessed prometheus.Counter
	RatiosComputed   *prometheus.CounterVec // labels: variant
	RatiosUndefined  *prometheus.CounterVec // labels: variant

	// Feed acquisition metrics.
	FeedFetches     *prometheus.CounterVec // labels: outcome={success,error}
	FeedCacheHits   prometheus.Counter
	FeedCacheMisses prometheus.Counter

	PipelineRuns     *prometheus.CounterVec // labels: status={success,error}
	PipelineReady    prometheus.Gauge
	PipelineDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "rows_ingested_total",
			Help:      "Total raw case rows accepted by the ingestion normalizer.",
		}),
		RegionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "regions_processed_total",
			Help:      "Total region series carried through the analysis pass.",
		}),
		RatiosComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "ratios_computed_total",
			Help:      "Peak ratios computed, by undercount variant.",
		}, []string{"variant"}),
		RatiosUndefined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "ratios_undefined_total",
			Help:      "Ratios that fell back to zero for lack of history, by variant.",
		}, []string{"variant"}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "feed_fetches_total",
			Help:      "Upstream feed downloads by outcome.",
		}, []string{"outcome"}),
		FeedCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "feed_cache_hits_total",
			Help:      "Feed requests served from the on-disk cache.",
		}),
		FeedCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "feed_cache_misses_total",
			Help:      "Feed requests that required a fresh download.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "undercount",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by status.",
		}, []string{"status"}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "undercount",
			Name:      "pipeline_ready",
			Help:      "1 once a run has completed successfully, 0 before.",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "undercount",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a complete extract-analyze-load run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	prometheus.MustRegister(
		m.RowsIngested,
		m.RegionsProcessed,
		m.RatiosComputed,
		m.RatiosUndefined,
		m.FeedFetches,
		m.FeedCacheHits,
		m.FeedCacheMisses,
		m.PipelineRuns,
		m.PipelineReady,
		m.PipelineDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsIngested:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "undercount", Name: "rows_ingested_total"}),
		RegionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "undercount", Name: "regions_processed_total"}),
		RatiosComputed:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "undercount", Name: "ratios_computed_total"}, []string{"variant"}),
		RatiosUndefined:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "undercount", Name: "ratios_undefined_total"}, []string{"variant"}),
		FeedFetches:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "undercount", Name: "feed_fetches_total"}, []string{"outcome"}),
		FeedCacheHits:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "undercount", Name: "feed_cache_hits_total"}),
		FeedCacheMisses:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "undercount", Name: "feed_cache_misses_total"}),
		PipelineRuns:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "undercount", Name: "pipeline_runs_total"}, []string{"status"}),
		PipelineReady:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "undercount", Name: "pipeline_ready"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "undercount", Name: "pipeline_duration_seconds"}),
	}
}
