package calc

import (
	"fmt"

	"normcalc/internal/domain"
	"normcalc/internal/norms"
)

// FiberCalculator derives fiber cable, splice and connector materials by
// direct material code lookup
type FiberCalculator struct {
	base
}

// NewFiberCalculator creates a fiber calculator resolving codes through materials
func NewFiberCalculator(materials norms.MaterialLookup, opts ...Option) *FiberCalculator {
	return &FiberCalculator{base: newBase(nil, materials, opts)}
}

// CableCode returns the cable material code for a core count
func (c *FiberCalculator) CableCode(cores int) string {
	return fmt.Sprintf(c.settings.Fiber.CableTemplate, cores)
}

// Calculate requires cable length and core count. The cable quantity is the
// length as recorded; splice and connector quantities are their counts.
func (c *FiberCalculator) Calculate(link domain.TopologyLink) (Result, error) {
	r := c.begin(domain.EntityFiber, link.ID)

	if link.CableLength == nil {
		return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrCableLength}
	}
	if link.FiberCores == nil {
		return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrFiberCores}
	}

	if err := r.addMaterial(c.CableCode(*link.FiberCores), *link.CableLength); err != nil {
		return Result{}, err
	}

	if splices := domain.IntOr(link.FiberSpliceCount, 0); splices > 0 {
		for _, code := range c.settings.Fiber.SpliceCodes {
			if err := r.addMaterial(code, float64(splices)); err != nil {
				return Result{}, err
			}
		}
	}

	if connectors := domain.IntOr(link.FiberConnectorCount, 0); connectors > 0 {
		if err := r.addMaterial(c.settings.Fiber.ConnectorCode, float64(connectors)); err != nil {
			return Result{}, err
		}
	}

	return r.result, nil
}
