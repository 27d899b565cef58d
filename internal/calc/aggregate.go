package calc

import (
	"sync"

	"normcalc/internal/domain"
	"normcalc/internal/norms"
)

// Merge sums quantity maps by material code into a new map
func Merge(parts ...domain.QuantityMap) domain.QuantityMap {
	out := domain.QuantityMap{}
	for _, part := range parts {
		out.AddAll(part)
	}
	return out
}

// Aggregator accumulates entity results. It is safe for concurrent use;
// for bit-identical totals add results in a fixed order.
type Aggregator struct {
	mu       sync.Mutex
	totals   domain.QuantityMap
	warnings []domain.Warning
	entities int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{totals: domain.QuantityMap{}}
}

// Add folds one result into the totals
func (a *Aggregator) Add(r Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totals.AddAll(r.Quantities)
	a.warnings = append(a.warnings, r.Warnings...)
	a.entities++
}

// Quantities returns a copy of the totals
func (a *Aggregator) Quantities() domain.QuantityMap {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Merge(a.totals)
}

// Warnings returns the warnings collected so far
func (a *Aggregator) Warnings() []domain.Warning {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.Warning, len(a.warnings))
	copy(out, a.warnings)
	return out
}

// Entities returns how many results were added
func (a *Aggregator) Entities() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.entities
}

// BOM resolves the totals to material lines sorted by category and name.
// Codes the lookup cannot resolve keep the code as their name.
func (a *Aggregator) BOM(lookup norms.MaterialLookup) []domain.BOMLine {
	return BuildBOM(a.Quantities(), lookup)
}

// BuildBOM resolves quantities to sorted material lines
func BuildBOM(quantities domain.QuantityMap, lookup norms.MaterialLookup) []domain.BOMLine {
	lines := make([]domain.BOMLine, 0, len(quantities))
	for code, qty := range quantities {
		line := domain.BOMLine{Code: code, Name: code, Quantity: qty}
		if lookup != nil {
			if m, ok := lookup.MaterialByCode(code); ok {
				line.Name = m.Name
				line.Category = m.Category
				line.Unit = m.Unit
			}
		}
		lines = append(lines, line)
	}
	domain.SortBOM(lines)
	return lines
}
