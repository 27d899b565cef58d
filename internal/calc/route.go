package calc

import (
	"strings"

	"normcalc/internal/domain"
	"normcalc/internal/formula"
	"normcalc/internal/norms"
)

// Route context types
const (
	ContextPipeHorizontal = "CORRUGATED_PIPE_HORIZONTAL"
	ContextPipeVertical   = "CORRUGATED_PIPE_VERTICAL"
	ContextPipeCoupling   = "CORRUGATED_PIPE_COUPLING"
	ContextPipeBranch     = "CORRUGATED_PIPE_BRANCH"
	ContextCableChannel   = "CABLE_CHANNEL"
	ContextTrayTies       = "TRAY_OR_STRUCTURE_TIES"
	ContextWireRopeTies   = "WIRE_ROPE_TIES"
	ContextBareOneClip    = "BARE_CABLE_ONE_CLIP"
	ContextBarePETies     = "BARE_CABLE_PE_TIES"
)

// pipeCouplingLength is the run length above which pipe sections need couplings
const pipeCouplingLength = 100

// RouteCalculator derives raceway and fixing materials for installation routes
type RouteCalculator struct {
	base
}

// NewRouteCalculator creates a route calculator. materials resolves a
// route's main material code and may be nil when no route sets one.
func NewRouteCalculator(registry norms.Registry, materials norms.MaterialLookup, opts ...Option) *RouteCalculator {
	return &RouteCalculator{base: newBase(registry, materials, opts)}
}

// CalculateForRoute applies the route type's contexts. Route materials are
// mandatory: a missing norm, missing attribute or unsupported value is fatal.
func (c *RouteCalculator) CalculateForRoute(route domain.InstallationRoute, linksInRoute []domain.TopologyLink) (Result, error) {
	r := c.begin(domain.EntityRoute, route.ID)

	if route.LengthMeters == nil || *route.LengthMeters <= 0 {
		return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrLength}
	}
	if strings.TrimSpace(route.RouteType) == "" {
		return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrRouteType}
	}

	length := *route.LengthMeters
	vars := func(step float64) formula.Vars {
		return formula.Vars{"length": length, "lengthMeters": length, "step": step}
	}
	steps := c.settings.Steps

	switch route.Type() {
	case domain.RouteTypeCorrugatedPipe:
		var contextType string
		var step float64
		switch domain.ParseOrientation(route.Orientation) {
		case domain.OrientationHorizontal:
			contextType, step = ContextPipeHorizontal, steps.PipeHorizontal
		case domain.OrientationVertical:
			contextType, step = ContextPipeVertical, steps.PipeVertical
		default:
			if strings.TrimSpace(route.Orientation) == "" {
				return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrOrientation}
			}
			return Result{}, &UnsupportedValueError{Entity: r.ref, Attribute: attrOrientation, Value: route.Orientation}
		}

		if err := r.applyAll(contextType, vars(step), true); err != nil {
			return Result{}, err
		}
		if length > pipeCouplingLength {
			if err := r.applyAll(ContextPipeCoupling, vars(step), true); err != nil {
				return Result{}, err
			}
		}
		if n := len(linksInRoute); n > 0 {
			v := vars(step)
			v["branches"] = n
			if err := r.applyAll(ContextPipeBranch, v, true); err != nil {
				return Result{}, err
			}
		}

	case domain.RouteTypeCableChannel:
		contextType := withSuffix(ContextCableChannel, route.MountSurface)
		if err := r.applyAll(contextType, vars(steps.CableChannel), true); err != nil {
			return Result{}, err
		}

	case domain.RouteTypeTrayOrStructure:
		if err := r.applyAll(ContextTrayTies, vars(steps.TrayOrStructure), true); err != nil {
			return Result{}, err
		}

	case domain.RouteTypeWireRope:
		if err := r.applyAll(ContextWireRopeTies, vars(steps.WireRope), true); err != nil {
			return Result{}, err
		}

	case domain.RouteTypeBareCable:
		var contextType string
		switch domain.ParseFixingMethod(route.FixingMethod) {
		case domain.FixingMethodOneClip:
			contextType = ContextBareOneClip
		case domain.FixingMethodPETies:
			contextType = ContextBarePETies
		default:
			if strings.TrimSpace(route.FixingMethod) == "" {
				return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrFixingMethod}
			}
			return Result{}, &UnsupportedValueError{Entity: r.ref, Attribute: attrFixingMethod, Value: route.FixingMethod}
		}
		if err := r.applyAll(contextType, vars(steps.BareCable), true); err != nil {
			return Result{}, err
		}

	default:
		return Result{}, &UnsupportedValueError{Entity: r.ref, Attribute: attrRouteType, Value: route.RouteType}
	}

	if route.MainMaterialCode != "" {
		if err := r.addMaterial(route.MainMaterialCode, length); err != nil {
			return Result{}, err
		}
	}

	return r.result, nil
}
