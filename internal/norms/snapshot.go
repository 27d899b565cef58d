// Package norms provides the read-only norm registry used by calculators.
//
// A Snapshot is an immutable, indexed copy of the material catalog and its
// norms. A calculation pass takes one snapshot and uses it throughout, so
// catalog edits made while the pass runs are never observed. Store publishes
// the current snapshot and swaps it atomically on reload.
package norms

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"normcalc/internal/domain"

	"golang.org/x/crypto/blake2b"
)

// Registry looks norms up by context type. A missing key is not an error;
// callers decide whether an empty result is fatal.
type Registry interface {
	ByContextType(contextType string) []domain.MaterialNorm
	SingleByContextType(contextType string) (domain.MaterialNorm, bool)
	HasContextPrefix(prefix string) bool
}

// MaterialLookup resolves materials by code
type MaterialLookup interface {
	MaterialByCode(code string) (domain.Material, bool)
}

// CatalogSource supplies the full catalog a snapshot is built from
type CatalogSource interface {
	ListMaterials(ctx context.Context) ([]domain.Material, error)
	ListNorms(ctx context.Context) ([]domain.MaterialNorm, error)
}

// Snapshot is an immutable Registry and MaterialLookup
type Snapshot struct {
	materials map[string]domain.Material
	byContext map[string][]domain.MaterialNorm
	contexts  []string
	normCount int
	digest    string
	loadedAt  time.Time
}

// NewSnapshot indexes materials and norms. Norms keep their input order
// within a context. Materials referenced only by a norm are indexed from
// the norm.
func NewSnapshot(materials []domain.Material, norms []domain.MaterialNorm) *Snapshot {
	s := &Snapshot{
		materials: make(map[string]domain.Material, len(materials)),
		byContext: make(map[string][]domain.MaterialNorm),
		normCount: len(norms),
		loadedAt:  time.Now(),
	}

	for _, m := range materials {
		s.materials[m.Code] = m
	}
	for _, n := range norms {
		key := strings.TrimSpace(n.ContextType)
		n.ContextType = key
		if m, ok := s.materials[n.Material.Code]; ok {
			n.Material = m
		} else if n.Material.Code != "" {
			s.materials[n.Material.Code] = n.Material
		}
		s.byContext[key] = append(s.byContext[key], n)
	}

	s.contexts = make([]string, 0, len(s.byContext))
	for key := range s.byContext {
		s.contexts = append(s.contexts, key)
	}
	sort.Strings(s.contexts)

	s.digest = s.computeDigest()
	return s
}

// Empty returns a snapshot without materials or norms
func Empty() *Snapshot {
	return NewSnapshot(nil, nil)
}

// Load reads the catalog from src and builds a snapshot
func Load(ctx context.Context, src CatalogSource) (*Snapshot, error) {
	materials, err := src.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	norms, err := src.ListNorms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list norms: %w", err)
	}
	return NewSnapshot(materials, norms), nil
}

// ByContextType returns every norm registered under contextType
func (s *Snapshot) ByContextType(contextType string) []domain.MaterialNorm {
	return slices.Clone(s.byContext[contextType])
}

// SingleByContextType returns the first norm registered under contextType
func (s *Snapshot) SingleByContextType(contextType string) (domain.MaterialNorm, bool) {
	norms := s.byContext[contextType]
	if len(norms) == 0 {
		return domain.MaterialNorm{}, false
	}
	return norms[0], true
}

// HasContextPrefix reports whether any context type starts with prefix
func (s *Snapshot) HasContextPrefix(prefix string) bool {
	i := sort.SearchStrings(s.contexts, prefix)
	return i < len(s.contexts) && strings.HasPrefix(s.contexts[i], prefix)
}

// MaterialByCode resolves a material
func (s *Snapshot) MaterialByCode(code string) (domain.Material, bool) {
	m, ok := s.materials[code]
	return m, ok
}

// Contexts returns the registered context types in sorted order
func (s *Snapshot) Contexts() []string {
	return slices.Clone(s.contexts)
}

// Materials returns every indexed material ordered by code
func (s *Snapshot) Materials() []domain.Material {
	out := make([]domain.Material, 0, len(s.materials))
	for _, m := range s.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NormCount returns the number of norms in the snapshot
func (s *Snapshot) NormCount() int {
	return s.normCount
}

// LoadedAt returns when the snapshot was built
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Digest is a content fingerprint. Equal catalogs give equal digests
// regardless of input order across contexts.
func (s *Snapshot) Digest() string {
	return s.digest
}

func (s *Snapshot) computeDigest() string {
	h, _ := blake2b.New256(nil)

	codes := make([]string, 0, len(s.materials))
	for code := range s.materials {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		m := s.materials[code]
		fmt.Fprintf(h, "m\x00%s\x00%s\x00%s\x00%s\n", m.Code, m.Name, m.Unit, m.Category)
	}
	for _, key := range s.contexts {
		for _, n := range s.byContext[key] {
			fmt.Fprintf(h, "n\x00%s\x00%s\x00%s\n", key, n.Material.Code, n.Formula)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
