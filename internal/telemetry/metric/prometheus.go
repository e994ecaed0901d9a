package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledgerd"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheErrors *prometheus.CounterVec

	// Connection metrics
	ConnectionsActive prometheus.Gauge
	RateLimited       prometheus.Counter

	accountsOnce sync.Once
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with the ledgerd metrics and the Go and
// process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by action and status",
		}, []string{"action", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"action"}),
		CacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Failed cache operations, by operation",
		}, []string{"op"}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open client connections",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.CacheErrors,
		r.ConnectionsActive,
		r.RateLimited,
	)

	return r
}

// Registerer exposes the underlying registry for component metrics.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RegisterAccounts exposes the account count through count, sampled at
// scrape time. Only the first call has an effect.
func (r *Registry) RegisterAccounts(count func() int) {
	r.accountsOnce.Do(func() {
		r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts currently held by the ledger",
		}, func() float64 { return float64(count()) }))
	})
}

// ObserveRequest records one handled request.
func (r *Registry) ObserveRequest(action, status string, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(action, status).Inc()
	r.RequestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// CacheError counts a failed cache operation.
func (r *Registry) CacheError(op string) {
	r.CacheErrors.WithLabelValues(op).Inc()
}

// ConnOpened increments the open connection gauge.
func (r *Registry) ConnOpened() {
	r.ConnectionsActive.Inc()
}

// ConnClosed decrements the open connection gauge.
func (r *Registry) ConnClosed() {
	r.ConnectionsActive.Dec()
}

// IncRateLimited counts a request rejected by the rate limiter.
func (r *Registry) IncRateLimited() {
	r.RateLimited.Inc()
}
