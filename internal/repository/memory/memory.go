// Package memory serves a catalog and projects held in memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"normcalc/internal/domain"
)

// Repository implements repository.Repository without persistence
type Repository struct {
	mu       sync.RWMutex
	catalog  *domain.Catalog
	projects map[string]*domain.Project
}

// New creates an empty repository
func New() *Repository {
	return &Repository{
		catalog:  domain.NewCatalog(),
		projects: make(map[string]*domain.Project),
	}
}

// ListMaterials returns every material ordered by code
func (r *Repository) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Material, len(r.catalog.Materials))
	copy(out, r.catalog.Materials)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ListNorms returns every norm in catalog order
func (r *Repository) ListNorms(ctx context.Context) ([]domain.MaterialNorm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MaterialNorm, len(r.catalog.Norms))
	copy(out, r.catalog.Norms)
	return out, nil
}

// MaterialByCode returns a material, or nil if the code is unknown
func (r *Repository) MaterialByCode(ctx context.Context, code string) (*domain.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.catalog.Material(code); ok {
		return &m, nil
	}
	return nil, nil
}

// NormsByContextType returns the norms of one context in catalog order
func (r *Repository) NormsByContextType(ctx context.Context, contextType string) ([]domain.MaterialNorm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MaterialNorm, 0)
	for _, n := range r.catalog.Norms {
		if n.ContextType == contextType {
			out = append(out, n)
		}
	}
	return out, nil
}

// ImportCatalog upserts materials and replaces the norm set
func (r *Repository) ImportCatalog(ctx context.Context, catalog *domain.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range catalog.Materials {
		r.catalog.AddMaterial(m)
	}
	for _, n := range catalog.Norms {
		if _, ok := r.catalog.Material(n.Material.Code); !ok {
			r.catalog.AddMaterial(n.Material)
		}
	}
	r.catalog.Norms = append([]domain.MaterialNorm(nil), catalog.Norms...)
	return nil
}

// GetCalculation returns a calculation, or nil if it does not exist
func (r *Repository) GetCalculation(ctx context.Context, id string) (*domain.Calculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	c := p.Calculation
	return &c, nil
}

// ListCalculations returns every calculation, newest first
func (r *Repository) ListCalculations(ctx context.Context) ([]domain.Calculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Calculation, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p.Calculation)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ImportProject replaces a calculation and all of its entities
func (r *Repository) ImportProject(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *project
	if p.Calculation.CreatedAt.IsZero() {
		p.Calculation.CreatedAt = time.Now()
	}
	r.projects[p.Calculation.ID] = &p
	return nil
}

// DeleteCalculation removes a calculation
func (r *Repository) DeleteCalculation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.projects, id)
	return nil
}

func (r *Repository) project(id string) *domain.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.projects[id]
}

// NetworkNodes returns the nodes of a calculation
func (r *Repository) NetworkNodes(ctx context.Context, calculationID string) ([]domain.NetworkNode, error) {
	if p := r.project(calculationID); p != nil {
		return append([]domain.NetworkNode(nil), p.Nodes...), nil
	}
	return nil, nil
}

// EndpointDevices returns the devices of a calculation
func (r *Repository) EndpointDevices(ctx context.Context, calculationID string) ([]domain.EndpointDevice, error) {
	if p := r.project(calculationID); p != nil {
		return append([]domain.EndpointDevice(nil), p.Devices...), nil
	}
	return nil, nil
}

// TopologyLinks returns the links of a calculation
func (r *Repository) TopologyLinks(ctx context.Context, calculationID string) ([]domain.TopologyLink, error) {
	if p := r.project(calculationID); p != nil {
		return append([]domain.TopologyLink(nil), p.Links...), nil
	}
	return nil, nil
}

// InstallationRoutes returns the routes of a calculation
func (r *Repository) InstallationRoutes(ctx context.Context, calculationID string) ([]domain.InstallationRoute, error) {
	if p := r.project(calculationID); p != nil {
		return append([]domain.InstallationRoute(nil), p.Routes...), nil
	}
	return nil, nil
}

// RouteSegments returns the links running through a route
func (r *Repository) RouteSegments(ctx context.Context, routeID string) ([]domain.RouteSegmentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RouteSegmentLink, 0)
	for _, p := range r.projects {
		for _, s := range p.Segments {
			if s.RouteID == routeID {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// Close is a no-op
func (r *Repository) Close() error {
	return nil
}
