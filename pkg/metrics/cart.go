package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// CartMetrics records cart store calls against the cart API.
type CartMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stale    prometheus.Counter
}

// NewCartMetrics registers the cart store metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_store_calls_total",
		Help: "Cart store calls by action and outcome.",
	}, []string{"action", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_store_call_duration_seconds",
		Help:    "Round trip duration of cart store calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_store_stale_responses_total",
		Help: "Cart responses discarded because a newer request was already applied.",
	})
	reg.MustRegister(calls, duration, stale)
	return &CartMetrics{
		calls:    calls,
		duration: duration,
		stale:    stale,
	}
}

// Observe records the outcome and duration of one cart store call.
func (c *CartMetrics) Observe(action, outcome string, duration time.Duration) {
	if c == nil || c.calls == nil {
		return
	}
	action = normalizeLabel(action)
	c.calls.WithLabelValues(action, normalizeLabel(outcome)).Inc()
	if outcome != OutcomeSkipped {
		c.duration.WithLabelValues(action).Observe(duration.Seconds())
	}
}

// IncStale counts a discarded out-of-order response.
func (c *CartMetrics) IncStale() {
	if c == nil || c.stale == nil {
		return
	}
	c.stale.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
