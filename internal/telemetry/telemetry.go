// Package telemetry provides the logger and metrics facade threaded
// through the core's stateful components: a *zap.Logger plus a narrow Metrics
// interface (CustomCounter, CustomTimer, CustomGauge) passed by
// reference rather than reached for globally.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// NewLogger builds the production JSON logger used outside of tests,
// or zap's development logger when debug is set.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Metrics is the narrow facade every component logs custom events
// through.
type Metrics interface {
	CustomCounter(name string, tags map[string]string, delta int64)
	CustomGauge(name string, tags map[string]string, value float64)
	CustomTimer(name string, tags map[string]string, d time.Duration)
}

// PrometheusMetrics implements Metrics on top of client_golang,
// registering a vector per metric name on first use.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	timers   map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics builds a Metrics backed by a fresh registry; the
// registry is exposed for wiring into the ops HTTP handler.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
		timers:   make(map[string]*prometheus.HistogramVec),
	}
}

// Registry returns the underlying Prometheus registry for HTTP exposition.
func (m *PrometheusMetrics) Registry() *prometheus.Registry { return m.registry }

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	return names
}

func (m *PrometheusMetrics) CustomCounter(name string, tags map[string]string, delta int64) {
	m.mu.Lock()
	cv, ok := m.counters[name]
	if !ok {
		cv = promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
			Name: "arena_" + name + "_total",
		}, labelNames(tags))
		m.counters[name] = cv
	}
	m.mu.Unlock()
	cv.With(tags).Add(float64(delta))
}

func (m *PrometheusMetrics) CustomGauge(name string, tags map[string]string, value float64) {
	m.mu.Lock()
	gv, ok := m.gauges[name]
	if !ok {
		gv = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "arena_" + name,
		}, labelNames(tags))
		m.gauges[name] = gv
	}
	m.mu.Unlock()
	gv.With(tags).Set(value)
}

func (m *PrometheusMetrics) CustomTimer(name string, tags map[string]string, d time.Duration) {
	m.mu.Lock()
	hv, ok := m.timers[name]
	if !ok {
		hv = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arena_" + name + "_seconds",
			Buckets: prometheus.DefBuckets,
		}, labelNames(tags))
		m.timers[name] = hv
	}
	m.mu.Unlock()
	hv.With(tags).Observe(d.Seconds())
}

// Noop is a Metrics implementation that discards everything, used in
// unit tests that don't care about observability.
type Noop struct{}

func (Noop) CustomCounter(string, map[string]string, int64)       {}
func (Noop) CustomGauge(string, map[string]string, float64)       {}
func (Noop) CustomTimer(string, map[string]string, time.Duration) {}
