package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sunsettings"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Scoring metrics.
	Analyses         *prometheus.CounterVec   // labels: source={rules,model,synthetic}, outcome={success,malformed,unavailable,error}
	AnalysisDuration *prometheus.HistogramVec // labels: source
	Probability      prometheus.Histogram
	RuleDrift        prometheus.Histogram
	Retries          prometheus.Counter
	Fallbacks        *prometheus.CounterVec // labels: from, to

	// Generative backend metrics.
	BackendRequests *prometheus.CounterVec // labels: outcome={success,error,unavailable}
	BackendDuration prometheus.Histogram

	// Upstream and cache metrics.
	UpstreamDuration *prometheus.HistogramVec // labels: upstream={open_meteo,nominatim}
	UpstreamErrors   *prometheus.CounterVec   // labels: upstream
	CacheLookups     *prometheus.CounterVec   // labels: cache={forecast,geocode,history}, result={hit,miss,error}
	RateLimited      prometheus.Counter

	// Batch scorer metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Sunset analyses by scoring source and outcome.",
		}, []string{"source", "outcome"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent producing a score, by scoring source.",
			Buckets:   []float64{0.0005, 0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"source"}),
		Probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probability",
			Help:      "Distribution of returned sunset probabilities.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		RuleDrift: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_rule_drift",
			Help:      "Model probability minus the rule score for the same features.",
			Buckets:   []float64{-50, -25, -10, -5, 0, 5, 10, 25, 50},
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicious_retries_total",
			Help:      "Second attempts made for suspicious probabilities.",
		}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Analyses answered by the fallback source.",
		}, []string{"from", "to"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Generative backend requests by outcome.",
		}, []string{"outcome"}),
		BackendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Generative backend request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Forecast and geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"upstream"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed forecast and geocoding API requests.",
		}, []string{"upstream"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "HTTP requests rejected by the per-client rate limiter.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total analysis requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total analysis results written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total analysis requests that could not be scored.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the batch scorer is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-score-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Analyses,
		m.AnalysisDuration,
		m.Probability,
		m.RuleDrift,
		m.Retries,
		m.Fallbacks,
		m.BackendRequests,
		m.BackendDuration,
		m.UpstreamDuration,
		m.UpstreamErrors,
		m.CacheLookups,
		m.RateLimited,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	}
}
