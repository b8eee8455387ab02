// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	OccurrenceActions  *prometheus.CounterVec
	StockAdjustments   *prometheus.CounterVec
	SweepMaterialized  prometheus.Counter
	SideEffectFailures *prometheus.CounterVec
	ComplianceRates    prometheus.Histogram
}

// New registra todo en un registry propio (no el global) para que cada
// router, incluido el de tests, tenga el suyo.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcare",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medcare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
		OccurrenceActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcare",
			Subsystem: "history",
			Name:      "actions_total",
			Help:      "Occurrence actions by action and outcome",
		}, []string{"action", "outcome"}),
		StockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcare",
			Subsystem: "history",
			Name:      "stock_adjustments_total",
			Help:      "Stock changes applied together with an occurrence transition",
		}, []string{"direction"}),
		SweepMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medcare",
			Subsystem: "history",
			Name:      "sweep_materialized_total",
			Help:      "Implicit MISSED occurrences written by the read sweep",
		}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcare",
			Subsystem: "history",
			Name:      "side_effect_failures_total",
			Help:      "Post-commit side effects (mute, publish) that failed",
		}, []string{"kind"}),
		ComplianceRates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medcare",
			Subsystem: "history",
			Name:      "weekly_compliance_rate",
			Help:      "Weekly compliance rates served",
			Buckets:   []float64{10, 25, 50, 70, 80, 90, 95, 100},
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.OccurrenceActions,
		m.StockAdjustments,
		m.SweepMaterialized,
		m.SideEffectFailures,
		m.ComplianceRates,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Los helpers siguientes toleran receptor nil: los servicios pueden no tener métricas.

func (m *Metrics) Action(action, outcome string) {
	if m == nil {
		return
	}
	m.OccurrenceActions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) Stock(delta int) {
	if m == nil || delta == 0 {
		return
	}
	dir := "increment"
	if delta < 0 {
		dir = "decrement"
	}
	m.StockAdjustments.WithLabelValues(dir).Inc()
}

func (m *Metrics) Swept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SweepMaterialized.Add(float64(n))
}

func (m *Metrics) SideEffectFailed(kind string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ComplianceRate(rate float64) {
	if m == nil {
		return
	}
	m.ComplianceRates.Observe(rate)
}
