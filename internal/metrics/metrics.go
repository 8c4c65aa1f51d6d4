// Package metrics exposes Prometheus collectors for the query pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/router"
)

const namespace = "faqbot"

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	turns         *prometheus.CounterVec
	states        *prometheus.CounterVec
	backendErrors *prometheus.CounterVec
	degraded      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	confidence    *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed turns by strategy and language.",
		}, []string{"strategy", "language"}),
		states: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_states_total",
			Help:      "Router states visited and whether they accepted.",
		}, []string{"state", "accepted"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Absorbed backend failures by backend and state.",
		}, []string{"backend", "state", "timeout"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_responses_total",
			Help:      "Responses returned untranslated.",
		}, []string{"language"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handle_message_seconds",
			Help:      "End-to-end HandleMessage latency.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy"}),
		confidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_confidence",
			Help:      "Confidence of returned responses.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"strategy"}),
	}
	m.registry.MustRegister(
		m.turns, m.states, m.backendErrors, m.degraded, m.latency, m.confidence,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveResponse records a completed turn.
func (m *Metrics) ObserveResponse(resp chat.Response, elapsed time.Duration) {
	m.turns.WithLabelValues(string(resp.Strategy), string(resp.Language)).Inc()
	m.latency.WithLabelValues(string(resp.Strategy)).Observe(elapsed.Seconds())
	m.confidence.WithLabelValues(string(resp.Strategy)).Observe(resp.Confidence)
	if resp.Degraded {
		m.degraded.WithLabelValues(string(resp.Language)).Inc()
	}
}

// StateVisited implements router.Observer.
func (m *Metrics) StateVisited(s router.State, accepted bool) {
	m.states.WithLabelValues(s.String(), strconv.FormatBool(accepted)).Inc()
}

// BackendFailed implements router.Observer.
func (m *Metrics) BackendFailed(s router.State, err *router.BackendError) {
	m.backendErrors.WithLabelValues(err.Backend, s.String(), strconv.FormatBool(err.Timeout)).Inc()
}

var _ router.Observer = (*Metrics)(nil)
