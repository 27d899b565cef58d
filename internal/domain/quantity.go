package domain

import (
	"fmt"
	"sort"
)

// QuantityMap maps material codes to quantities
type QuantityMap map[string]float64

// Add accumulates qty under code. Non-positive quantities are ignored.
func (q QuantityMap) Add(code string, qty float64) {
	if qty <= 0 {
		return
	}
	q[code] += qty
}

// AddAll folds other into q
func (q QuantityMap) AddAll(other QuantityMap) {
	for code, qty := range other {
		q.Add(code, qty)
	}
}

// Codes returns the material codes in sorted order
func (q QuantityMap) Codes() []string {
	codes := make([]string, 0, len(q))
	for code := range q {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// EntityKind names the topology entity a warning or error refers to
type EntityKind string

const (
	EntityNode   EntityKind = "node"
	EntityDevice EntityKind = "device"
	EntityLink   EntityKind = "link"
	EntityFiber  EntityKind = "fiber_link"
	EntityRoute  EntityKind = "route"
)

// EntityRef identifies one topology entity
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s %q", r.Kind, r.ID)
}

// Warning is a soft failure: a contribution was skipped but the pass continues
type Warning struct {
	Entity      EntityRef `json:"entity"`
	ContextType string    `json:"context_type,omitempty"`
	Message     string    `json:"message"`
}

func (w Warning) String() string {
	if w.ContextType != "" {
		return fmt.Sprintf("%s [%s]: %s", w.Entity, w.ContextType, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Entity, w.Message)
}

// BOMLine is one aggregated material row
type BOMLine struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// SortBOM orders lines by category, then name, then code
func SortBOM(lines []BOMLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Code < b.Code
	})
}
