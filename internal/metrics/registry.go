// Package metrics exposes Prometheus metrics for calculation passes, catalog
// reloads and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// Calculation Metrics
	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration prometheus.Histogram
	EntitiesTotal       *prometheus.CounterVec
	WarningsTotal       *prometheus.CounterVec

	// Catalog Metrics
	CatalogReloadsTotal *prometheus.CounterVec
	CatalogNorms        prometheus.Gauge
	CatalogMaterials    prometheus.Gauge

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics initialized plus the Go
// runtime and process collectors
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initCalculationMetrics()
	r.initCatalogMetrics()
	r.initHTTPMetrics()
	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

func (r *Registry) initCalculationMetrics() {
	r.CalculationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "normcalc_calculations_total",
			Help: "Total number of calculation passes",
		},
		[]string{"status"},
	)

	r.CalculationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "normcalc_calculation_duration_seconds",
			Help:    "Calculation pass duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.EntitiesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "normcalc_entities_total",
			Help: "Total number of entities calculated",
		},
		[]string{"kind"},
	)

	r.WarningsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "normcalc_warnings_total",
			Help: "Total number of calculation warnings",
		},
		[]string{"kind"},
	)
}

func (r *Registry) initCatalogMetrics() {
	r.CatalogReloadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "normcalc_catalog_reloads_total",
			Help: "Total number of norm catalog reloads",
		},
		[]string{"status"},
	)

	r.CatalogNorms = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "normcalc_catalog_norms",
			Help: "Number of material norms in the active snapshot",
		},
	)

	r.CatalogMaterials = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "normcalc_catalog_materials",
			Help: "Number of materials in the active snapshot",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "normcalc_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "normcalc_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}
