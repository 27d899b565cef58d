package calc

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"normcalc/internal/domain"
	"normcalc/internal/norms"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeByCode(t *testing.T) {
	// two calculators loading the same material independently still merge
	a := domain.QuantityMap{"DOWEL_6X40": 4, "SCREW": 1}
	b := domain.QuantityMap{"DOWEL_6X40": 2}

	assert.Equal(t, domain.QuantityMap{"DOWEL_6X40": 6, "SCREW": 1}, Merge(a, b))
	assert.Equal(t, domain.QuantityMap{"DOWEL_6X40": 4, "SCREW": 1}, a, "inputs must not be modified")
}

func TestAggregatorConcurrentAdd(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			agg.Add(Result{
				Quantities: domain.QuantityMap{"A": 1, fmt.Sprintf("B%d", i%5): 2},
				Warnings:   []domain.Warning{{Message: "w"}},
			})
		}(i)
	}
	wg.Wait()

	q := agg.Quantities()
	assert.Equal(t, 50.0, q["A"])
	assert.Equal(t, 20.0, q["B0"])
	assert.Len(t, agg.Warnings(), 50)
	assert.Equal(t, 50, agg.Entities())
}

func TestAggregatorBOM(t *testing.T) {
	lookup := norms.NewSnapshot([]domain.Material{
		{Code: "CABLE", Name: "UTP cable", Unit: "m", Category: "Cables"},
		{Code: "DOWEL", Name: "Dowel", Unit: "pcs", Category: "Fasteners"},
	}, nil)

	agg := NewAggregator()
	agg.Add(Result{Quantities: domain.QuantityMap{"DOWEL": 8, "CABLE": 12.5, "MYSTERY": 1}})

	lines := agg.BOM(lookup)
	require.Len(t, lines, 3)
	assert.Equal(t, "MYSTERY", lines[0].Code)
	assert.Equal(t, "MYSTERY", lines[0].Name)
	assert.Equal(t, domain.BOMLine{Code: "CABLE", Name: "UTP cable", Unit: "m", Category: "Cables", Quantity: 12.5}, lines[1])
	assert.Equal(t, "DOWEL", lines[2].Code)
}

// contributions spreads values over a small set of codes so merges collide
func contributions(values []float64) []domain.QuantityMap {
	parts := make([]domain.QuantityMap, len(values))
	for i, v := range values {
		parts[i] = domain.QuantityMap{fmt.Sprintf("M%d", i%4): v}
	}
	return parts
}

func sameTotals(a, b domain.QuantityMap) bool {
	if len(a) != len(b) {
		return false
	}
	for code, qa := range a {
		qb, ok := b[code]
		if !ok || math.Abs(qa-qb) > 1e-9*math.Max(1, math.Abs(qa)) {
			return false
		}
	}
	return true
}

func TestMergeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("merge order does not change totals", prop.ForAll(
		func(values []float64, shift int) bool {
			parts := contributions(values)
			forward := Merge(parts...)

			rotated := make([]domain.QuantityMap, 0, len(parts))
			if len(parts) > 0 {
				k := shift % len(parts)
				rotated = append(rotated, parts[k:]...)
				rotated = append(rotated, parts[:k]...)
			}
			reversed := make([]domain.QuantityMap, len(parts))
			for i, p := range parts {
				reversed[len(parts)-1-i] = p
			}

			return sameTotals(forward, Merge(rotated...)) && sameTotals(forward, Merge(reversed...))
		},
		gen.SliceOf(gen.Float64Range(0.001, 1000)),
		gen.IntRange(0, 100),
	))

	properties.Property("merge is associative", prop.ForAll(
		func(a, b, c []float64) bool {
			x, y, z := Merge(contributions(a)...), Merge(contributions(b)...), Merge(contributions(c)...)
			return sameTotals(Merge(Merge(x, y), z), Merge(x, Merge(y, z)))
		},
		gen.SliceOf(gen.Float64Range(0.001, 1000)),
		gen.SliceOf(gen.Float64Range(0.001, 1000)),
		gen.SliceOf(gen.Float64Range(0.001, 1000)),
	))

	properties.Property("merged quantities are positive", prop.ForAll(
		func(values []float64) bool {
			for _, q := range Merge(contributions(values)...) {
				if q <= 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-10, 10)),
	))

	properties.TestingRun(t)
}
