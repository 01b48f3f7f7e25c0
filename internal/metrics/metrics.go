package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Image generation outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeInvalid     = "invalid_prompt"
	OutcomeFailed      = "failed"
)

// Metrics owns its registry so tests can build as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	checkoutSessions *prometheus.CounterVec
	imageGenerations *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		checkoutSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cardify",
				Name:      "checkout_sessions_total",
				Help:      "Checkout session attempts by mode and result code.",
			},
			[]string{"mode", "code"},
		),
		imageGenerations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cardify",
				Name:      "image_generations_total",
				Help:      "Image generation requests by outcome.",
			},
			[]string{"outcome"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cardify",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "route", "status"},
		),
	}

	m.Registry.MustRegister(
		m.checkoutSessions,
		m.imageGenerations,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// CheckoutSession records one attempt. code is "OK" on success.
func (m *Metrics) CheckoutSession(mode, code string) {
	m.checkoutSessions.WithLabelValues(mode, code).Inc()
}

func (m *Metrics) ImageGeneration(outcome string) {
	m.imageGenerations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
