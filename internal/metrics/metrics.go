package metrics

import (
	"strconv"
	"time"

	"normcalc/internal/domain"
)

// RecordCalculation records a finished calculation pass
func (r *Registry) RecordCalculation(status string, duration time.Duration) {
	r.CalculationsTotal.WithLabelValues(status).Inc()
	r.CalculationDuration.Observe(duration.Seconds())
}

// RecordEntity counts one calculated entity
func (r *Registry) RecordEntity(kind domain.EntityKind) {
	r.EntitiesTotal.WithLabelValues(string(kind)).Inc()
}

// RecordWarning counts one warning raised for an entity of kind
func (r *Registry) RecordWarning(kind domain.EntityKind) {
	r.WarningsTotal.WithLabelValues(string(kind)).Inc()
}

// RecordCatalogReload records a reload attempt and, on success, the size of
// the new snapshot
func (r *Registry) RecordCatalogReload(err error, norms, materials int) {
	if err != nil {
		r.CatalogReloadsTotal.WithLabelValues("failed").Inc()
		return
	}
	r.CatalogReloadsTotal.WithLabelValues("success").Inc()
	r.CatalogNorms.Set(float64(norms))
	r.CatalogMaterials.Set(float64(materials))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
