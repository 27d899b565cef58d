package repository

import (
	"context"

	"normcalc/internal/domain"
)

// CatalogReader is the read side of the material catalog
type CatalogReader interface {
	ListMaterials(ctx context.Context) ([]domain.Material, error)
	ListNorms(ctx context.Context) ([]domain.MaterialNorm, error)
	// MaterialByCode returns nil, nil when the code is unknown
	MaterialByCode(ctx context.Context, code string) (*domain.Material, error)
	NormsByContextType(ctx context.Context, contextType string) ([]domain.MaterialNorm, error)
}

// TopologySource supplies the entities of one calculation
type TopologySource interface {
	// GetCalculation returns nil, nil when the calculation is unknown
	GetCalculation(ctx context.Context, id string) (*domain.Calculation, error)
	NetworkNodes(ctx context.Context, calculationID string) ([]domain.NetworkNode, error)
	EndpointDevices(ctx context.Context, calculationID string) ([]domain.EndpointDevice, error)
	TopologyLinks(ctx context.Context, calculationID string) ([]domain.TopologyLink, error)
	InstallationRoutes(ctx context.Context, calculationID string) ([]domain.InstallationRoute, error)
	RouteSegments(ctx context.Context, routeID string) ([]domain.RouteSegmentLink, error)
}

// Repository defines the interface for catalog and project data access
type Repository interface {
	CatalogReader
	TopologySource

	ListCalculations(ctx context.Context) ([]domain.Calculation, error)

	// Bulk operations
	ImportCatalog(ctx context.Context, catalog *domain.Catalog) error
	ImportProject(ctx context.Context, project *domain.Project) error
	DeleteCalculation(ctx context.Context, id string) error

	// Close releases resources
	Close() error
}
