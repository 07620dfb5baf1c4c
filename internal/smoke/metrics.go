package smoke

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
)

// Prometheus metric names.
const (
	MetricRequestsTotal          = "smoke_requests_total"
	MetricRequestDurationSeconds = "smoke_request_duration_seconds"
)

// Metrics records smoke results in a private registry that can be scraped
// or pushed to a Pushgateway at the end of a run.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the smoke collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "smoke",
				Name:      "requests_total",
				Help:      "Smoke requests by category and outcome.",
			},
			[]string{"category", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "smoke",
				Name:      "request_duration_seconds",
				Help:      "Smoke request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"category", "method"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// Observe records one result. Nil receivers are ignored.
func (m *Metrics) Observe(r Result) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(r.Category, string(r.Outcome)).Inc()
	if r.Outcome != OutcomeSkipped {
		m.duration.WithLabelValues(r.Category, r.Method).Observe(float64(r.ResponseTime) / 1000)
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Push sends the registry to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing smoke metrics: %w", err)
	}
	return nil
}

// Count returns the current requests_total value for a label pair.
func (m *Metrics) Count(category string, outcome Outcome) float64 {
	c, err := m.requests.GetMetricWithLabelValues(category, string(outcome))
	if err != nil {
		return 0
	}
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}
