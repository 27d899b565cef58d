package norms

import (
	"context"
	"errors"
	"testing"

	"normcalc/internal/domain"
)

func testCatalog() ([]domain.Material, []domain.MaterialNorm) {
	dowel := domain.Material{Code: "DOWEL_6X40", Name: "Dowel 6x40", Unit: "pcs", Category: "Fasteners"}
	screw := domain.Material{Code: "SCREW_4_2X50", Name: "Screw 4.2x50", Unit: "pcs", Category: "Fasteners"}
	materials := []domain.Material{dowel, screw}
	norms := []domain.MaterialNorm{
		{ContextType: "ENDPOINT_CAMERA_FIXING", Material: dowel, Formula: "4 * deviceCount"},
		{ContextType: "ENDPOINT_CAMERA_FIXING", Material: screw, Formula: "4 * deviceCount"},
		{ContextType: " NODE_CABINET_400 ", Material: domain.Material{Code: "CABINET_400"}, Formula: "1"},
	}
	return materials, norms
}

func TestSnapshotLookups(t *testing.T) {
	s := NewSnapshot(testCatalog())

	t.Run("by context returns all in order", func(t *testing.T) {
		got := s.ByContextType("ENDPOINT_CAMERA_FIXING")
		if len(got) != 2 {
			t.Fatalf("expected 2 norms, got %d", len(got))
		}
		if got[0].Material.Code != "DOWEL_6X40" || got[1].Material.Code != "SCREW_4_2X50" {
			t.Errorf("unexpected order: %s, %s", got[0].Material.Code, got[1].Material.Code)
		}
	})

	t.Run("missing context is empty", func(t *testing.T) {
		if got := s.ByContextType("NOPE"); len(got) != 0 {
			t.Errorf("expected no norms, got %d", len(got))
		}
		if _, ok := s.SingleByContextType("NOPE"); ok {
			t.Error("expected no single norm")
		}
	})

	t.Run("single returns first", func(t *testing.T) {
		n, ok := s.SingleByContextType("ENDPOINT_CAMERA_FIXING")
		if !ok {
			t.Fatal("expected a norm")
		}
		if n.Material.Code != "DOWEL_6X40" {
			t.Errorf("expected DOWEL_6X40, got %s", n.Material.Code)
		}
	})

	t.Run("context keys are trimmed", func(t *testing.T) {
		if _, ok := s.SingleByContextType("NODE_CABINET_400"); !ok {
			t.Error("expected trimmed context key to resolve")
		}
	})

	t.Run("norm-only materials are indexed", func(t *testing.T) {
		if _, ok := s.MaterialByCode("CABINET_400"); !ok {
			t.Error("expected CABINET_400 to be resolvable")
		}
	})

	t.Run("context prefix", func(t *testing.T) {
		if !s.HasContextPrefix("NODE_CABINET_") {
			t.Error("expected NODE_CABINET_ prefix to match")
		}
		if s.HasContextPrefix("ROUTE_") {
			t.Error("expected ROUTE_ prefix not to match")
		}
	})

	t.Run("results cannot mutate the snapshot", func(t *testing.T) {
		got := s.ByContextType("ENDPOINT_CAMERA_FIXING")
		got[0].Formula = "999"
		again := s.ByContextType("ENDPOINT_CAMERA_FIXING")
		if again[0].Formula != "4 * deviceCount" {
			t.Errorf("snapshot was mutated: %q", again[0].Formula)
		}
	})
}

func TestSnapshotDigest(t *testing.T) {
	materials, norms := testCatalog()
	a := NewSnapshot(materials, norms)

	reversed := []domain.Material{materials[1], materials[0]}
	b := NewSnapshot(reversed, norms)
	if a.Digest() != b.Digest() {
		t.Error("expected material order not to affect digest")
	}

	norms[0].Formula = "5 * deviceCount"
	c := NewSnapshot(materials, norms)
	if a.Digest() == c.Digest() {
		t.Error("expected formula change to affect digest")
	}
}

type stubSource struct {
	materials []domain.Material
	norms     []domain.MaterialNorm
	err       error
}

func (s *stubSource) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	return s.materials, s.err
}

func (s *stubSource) ListNorms(ctx context.Context) ([]domain.MaterialNorm, error) {
	return s.norms, nil
}

func TestLoad(t *testing.T) {
	materials, norms := testCatalog()

	s, err := Load(context.Background(), &stubSource{materials: materials, norms: norms})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.NormCount() != 3 {
		t.Errorf("expected 3 norms, got %d", s.NormCount())
	}

	boom := errors.New("boom")
	if _, err := Load(context.Background(), &stubSource{err: boom}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestStore(t *testing.T) {
	store := NewStore(nil)
	if store.Current() == nil {
		t.Fatal("expected empty snapshot, got nil")
	}

	next := NewSnapshot(testCatalog())
	prev := store.Swap(next)
	if prev.NormCount() != 0 {
		t.Errorf("expected previous snapshot to be empty")
	}
	if store.Current() != next {
		t.Error("expected current snapshot to be swapped")
	}

	store.Swap(nil)
	if store.Current() != next {
		t.Error("expected nil swap to be ignored")
	}
}
