// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Provider metrics
	ProviderFetchesTotal *prometheus.CounterVec
	ProviderLatency      prometheus.Histogram

	// Backtest metrics
	BacktestsTotal   prometheus.Counter
	BacktestDuration prometheus.Histogram
	TradesSimulated  prometheus.Counter
	EventsSkipped    prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_unlock_lab"
	}

	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		ProviderFetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetches_total",
			Help:      "Total number of provider fetch attempts by outcome",
		}, []string{"outcome"}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_latency_seconds",
			Help:      "Provider fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		BacktestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs",
		}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		EventsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "events_skipped_total",
			Help:      "Total number of events skipped for missing price coverage",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// Provider fetch outcomes.
const (
	FetchOutcomeOK      = "ok"
	FetchOutcomeEmpty   = "empty"
	FetchOutcomeFailed  = "failed"
	FetchOutcomeSkipped = "skipped"
)

// RecordRequest increments the HTTP request counter and observes duration.
func RecordRequest(route, status string, seconds float64) {
	DefaultMetrics.RequestsTotal.WithLabelValues(route, status).Inc()
	DefaultMetrics.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordProviderFetch increments the provider fetch counter for an outcome.
// Latency is observed only for attempted fetches: a skipped fetch has no
// network call behind it, so a sample would drag the histogram toward zero.
func RecordProviderFetch(outcome string, seconds float64) {
	DefaultMetrics.ProviderFetchesTotal.WithLabelValues(outcome).Inc()
	if outcome != FetchOutcomeSkipped {
		DefaultMetrics.ProviderLatency.Observe(seconds)
	}
}

// RecordBacktest records one backtest run.
func RecordBacktest(trades, skipped int, seconds float64) {
	DefaultMetrics.BacktestsTotal.Inc()
	DefaultMetrics.BacktestDuration.Observe(seconds)
	DefaultMetrics.TradesSimulated.Add(float64(trades))
	DefaultMetrics.EventsSkipped.Add(float64(skipped))
}
