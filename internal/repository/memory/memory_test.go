package memory

import (
	"context"
	"testing"

	"normcalc/internal/domain"
	"normcalc/internal/repository"
)

var _ repository.Repository = (*Repository)(nil)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()

	cat := domain.NewCatalog()
	cat.AddMaterial(domain.Material{Code: "B", Name: "b"})
	cat.AddMaterial(domain.Material{Code: "A", Name: "a"})
	cat.AddNorm(domain.MaterialNorm{ContextType: "X", Material: domain.Material{Code: "C"}, Formula: "1"})
	if err := repo.ImportCatalog(ctx, cat); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	materials, _ := repo.ListMaterials(ctx)
	if len(materials) != 3 || materials[0].Code != "A" {
		t.Errorf("expected 3 sorted materials, got %+v", materials)
	}
	if m, _ := repo.MaterialByCode(ctx, "C"); m == nil {
		t.Error("expected norm-only material to be registered")
	}
	if m, _ := repo.MaterialByCode(ctx, "Z"); m != nil {
		t.Errorf("expected nil for unknown code, got %+v", m)
	}
	if norms, _ := repo.NormsByContextType(ctx, "X"); len(norms) != 1 {
		t.Errorf("expected 1 norm, got %d", len(norms))
	}

	project := &domain.Project{
		Calculation: domain.Calculation{ID: "c1"},
		Nodes:       []domain.NetworkNode{{ID: "n1"}},
		Routes:      []domain.InstallationRoute{{ID: "r1"}},
		Segments:    []domain.RouteSegmentLink{{RouteID: "r1", LinkID: "l1"}, {RouteID: "r2", LinkID: "l1"}},
	}
	if err := repo.ImportProject(ctx, project); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calc, _ := repo.GetCalculation(ctx, "c1")
	if calc == nil || calc.CreatedAt.IsZero() {
		t.Fatalf("expected calculation with creation time, got %+v", calc)
	}
	if nodes, _ := repo.NetworkNodes(ctx, "c1"); len(nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(nodes))
	}
	if segments, _ := repo.RouteSegments(ctx, "r1"); len(segments) != 1 {
		t.Errorf("expected 1 segment, got %d", len(segments))
	}

	if err := repo.DeleteCalculation(ctx, "c1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calc, _ := repo.GetCalculation(ctx, "c1"); calc != nil {
		t.Error("expected calculation to be deleted")
	}
}
