package formpost

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "formpost"

// request outcomes used as the "outcome" label
const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeExhausted = "exhausted"
)

// metrics holds the collectors updated by a [Poster].
type metrics struct {
	requests  *prometheus.CounterVec
	responses *prometheus.CounterVec
	duration  prometheus.Histogram
	inFlight  prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total number of POST requests by outcome (ok, error, exhausted)",
			},
			[]string{"outcome"},
		),
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "responses_total",
				Help:      "Total number of HTTP responses received by status class",
			},
			[]string{"code"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "POST duration in seconds, including pool wait and body read",
				Buckets:   prometheus.DefBuckets,
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "pool",
				Name:      "in_flight",
				Help:      "Number of pooled connection slots currently borrowed",
			},
		),
	}
}

// register adds all collectors to reg. A collector that is already
// registered is reused so that two posters can share one registry.
func (m *metrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}

	var err error
	if m.requests, err = registerOrExisting(reg, m.requests); err != nil {
		return err
	}
	if m.responses, err = registerOrExisting(reg, m.responses); err != nil {
		return err
	}
	if m.duration, err = registerOrExisting(reg, m.duration); err != nil {
		return err
	}
	if m.inFlight, err = registerOrExisting(reg, m.inFlight); err != nil {
		return err
	}
	return nil
}

func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("failed to register formpost metrics: %w", err)
}

// statusClass maps 204 to "2xx", 503 to "5xx" and so on.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}
