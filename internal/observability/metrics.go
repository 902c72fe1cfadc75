package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects core counters for test runs.
type Metrics struct {
	runs         *prometheus.CounterVec
	failures     *prometheus.CounterVec
	reportErrors *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inFlight     prometheus.Gauge
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "e2e_runs_total",
		Help: "Total finished runs by status.",
	}, []string{"status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "e2e_failures_total",
		Help: "Total failed runs by category.",
	}, []string{"category"})
	reportErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "e2e_report_errors_total",
		Help: "Total report read, parse, or publish errors by kind.",
	}, []string{"kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "e2e_run_duration_seconds",
		Help:    "Wall-clock duration of test tool invocations.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
	}, []string{"status"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "e2e_runs_in_flight",
		Help: "Runs currently executing.",
	})

	return &Metrics{
		runs:         registerCollector(registerer, runs),
		failures:     registerCollector(registerer, failures),
		reportErrors: registerCollector(registerer, reportErrors),
		duration:     registerCollector(registerer, duration),
		inFlight:     registerCollector(registerer, inFlight),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) IncRun(status string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) IncFailure(category string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(category).Inc()
}

func (m *Metrics) IncReportError(kind string) {
	if m == nil || m.reportErrors == nil {
		return
	}
	m.reportErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRunDuration(status string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(status).Observe(d.Seconds())
}

// RunStarted bumps the in-flight gauge and returns the matching decrement.
func (m *Metrics) RunStarted() func() {
	if m == nil || m.inFlight == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return collector
}
