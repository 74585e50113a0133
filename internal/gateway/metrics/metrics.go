package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the login flow. Methods are nil-safe so
// tests can run services without a registry.
type Metrics struct {
	// Login initiations
	LoginsStarted prometheus.Counter

	// Callback outcomes by terminal state
	CallbackOutcome *prometheus.CounterVec

	// End-to-end callback handling latency
	CallbackLatency prometheus.Histogram
}

// New creates a Metrics instance with all gateway metrics registered.
func New() *Metrics {
	return &Metrics{
		LoginsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgate_logins_started_total",
			Help: "Total login initiations",
		}),

		CallbackOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_callback_outcomes_total",
			Help: "Total callback outcomes by terminal state",
		}, []string{"outcome"}), // outcome: "success", "unauthorized", "csrf_mismatch", ...

		CallbackLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "authgate_callback_duration_seconds",
			Help:    "Duration of callback handling including the IdP exchange",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementLoginsStarted records a login initiation.
func (m *Metrics) IncrementLoginsStarted() {
	if m != nil {
		m.LoginsStarted.Inc()
	}
}

// IncrementOutcome records a callback terminal state.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.CallbackOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveCallbackLatency records the total callback handling duration.
func (m *Metrics) ObserveCallbackLatency(d time.Duration) {
	if m != nil {
		m.CallbackLatency.Observe(d.Seconds())
	}
}
