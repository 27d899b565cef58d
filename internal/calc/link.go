package calc

import (
	"fmt"

	"normcalc/internal/domain"
	"normcalc/internal/formula"
	"normcalc/internal/norms"
)

// Link context types
const (
	ContextLinkUTPLength   = "LINK_UTP_LENGTH"
	ContextLinkPowerLength = "LINK_POWER_LENGTH"
)

// LinkCalculator derives cable materials for copper and power links
type LinkCalculator struct {
	base
}

// NewLinkCalculator creates a link calculator over registry
func NewLinkCalculator(registry norms.Registry, opts ...Option) *LinkCalculator {
	return &LinkCalculator{base: newBase(registry, nil, opts)}
}

// Calculate sums every norm of the link's length context. Wireless and
// fiber links contribute nothing; missing length, unsupported type and
// missing norms only warn.
func (c *LinkCalculator) Calculate(link domain.TopologyLink) (Result, error) {
	r := c.begin(domain.EntityLink, link.ID)

	if link.IsWireless() {
		return r.result, nil
	}

	typ := link.Type()
	if typ == domain.LinkTypeFiber {
		return r.result, nil
	}

	if link.CableLength == nil || *link.CableLength <= 0 {
		r.warn("", "cable length missing or not positive")
		return r.result, nil
	}

	var contextType string
	switch typ {
	case domain.LinkTypeUTP:
		contextType = ContextLinkUTPLength
	case domain.LinkTypePower:
		contextType = ContextLinkPowerLength
	default:
		r.warn("", fmt.Sprintf("unsupported link type %q", link.LinkType))
		return r.result, nil
	}

	length := *link.CableLength
	vars := formula.Vars{"length": length, "lengthMeters": length}
	if err := r.applyAll(contextType, vars, false); err != nil {
		return Result{}, err
	}

	return r.result, nil
}
