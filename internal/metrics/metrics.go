// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
)

// Probe outcome labels.
const (
	ResultHealthy   = "healthy"
	ResultMismatch  = "mismatch"
	ResultBadStatus = "bad_status"
	ResultError     = "error"
)

// Metrics groups the instruments. Register with a private registry so tests
// stay isolated.
type Metrics struct {
	Probes          *prometheus.CounterVec
	ProbeDuration   *prometheus.HistogramVec
	TargetHealthy   *prometheus.GaugeVec
	PublishFailures *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
}

// New registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitepulse_probes_total",
			Help: "Probes performed, by target, scheme and outcome.",
		}, []string{"target", "scheme", "result"}),

		ProbeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitepulse_probe_duration_seconds",
			Help:    "Time from request start to response or failure.",
			Buckets: prometheus.DefBuckets,
		}, []string{"target", "scheme"}),

		TargetHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitepulse_target_healthy",
			Help: "1 if the last probe answered 200 with the expected text, else 0.",
		}, []string{"target", "scheme"}),

		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitepulse_publish_failures_total",
			Help: "Broker publishes that failed, by leaf topic.",
		}, []string{"topic"}),

		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitepulse_cycle_duration_seconds",
			Help:    "Duration of one pass over every target.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	reg.MustRegister(
		m.Probes,
		m.ProbeDuration,
		m.TargetHealthy,
		m.PublishFailures,
		m.CycleDuration,
	)
	return m
}

// ObserveResult records one probe. Its signature matches the scheduler's
// result hook.
func (m *Metrics) ObserveResult(target config.Target, r checker.CheckResult) {
	scheme := r.Scheme.String()
	m.Probes.WithLabelValues(target.Name, scheme, Classify(r)).Inc()
	m.ProbeDuration.WithLabelValues(target.Name, scheme).Observe(r.ResponseTime.Seconds())

	healthy := 0.0
	if r.Healthy() {
		healthy = 1
	}
	m.TargetHealthy.WithLabelValues(target.Name, scheme).Set(healthy)
}

// PublishFailed counts a failed publish under its leaf topic name.
func (m *Metrics) PublishFailed(topic string, _ error) {
	m.PublishFailures.WithLabelValues(path.Base(topic)).Inc()
}

// ObserveCycle records how long a full pass took.
func (m *Metrics) ObserveCycle(d time.Duration) {
	m.CycleDuration.Observe(d.Seconds())
}

// Classify buckets a result for the probes counter.
func Classify(r checker.CheckResult) string {
	switch {
	case r.Error != "":
		return ResultError
	case !r.Reachable:
		return ResultBadStatus
	case !r.ContainsExpected:
		return ResultMismatch
	default:
		return ResultHealthy
	}
}
