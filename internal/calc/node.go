package calc

import (
	"strconv"

	"normcalc/internal/domain"
	"normcalc/internal/formula"
	"normcalc/internal/norms"
)

// Node context types
const (
	ContextEndpointMount        = "ENDPOINT_MOUNT"
	ContextNodeIncomingCoupling = "NODE_INCOMING_COUPLING"
	ContextNodeLugs             = "NODE_LUGS"
	ContextNodeSocketDouble     = "NODE_SOCKET_DOUBLE"
	ContextNodeCircuitBreaker   = "NODE_CIRCUIT_BREAKER"
	ContextNodeCabinetPrefix    = "NODE_CABINET_"
)

const (
	mountPoints     = 4
	minTerminals    = 10
	terminalsPerExt = 4
)

// NodeCalculator derives cabinet and distribution point materials
type NodeCalculator struct {
	base
}

// NewNodeCalculator creates a node calculator over registry
func NewNodeCalculator(registry norms.Registry, opts ...Option) *NodeCalculator {
	return &NodeCalculator{base: newBase(registry, nil, opts)}
}

// Calculate resolves each node step independently. Every step reads at most
// one norm and a missing norm only warns. BaseCircuitBreakers is required;
// CabinetSize is required once the registry prices cabinets at all.
func (c *NodeCalculator) Calculate(node domain.NetworkNode) (Result, error) {
	r := c.begin(domain.EntityNode, node.ID)

	if node.BaseCircuitBreakers == nil {
		return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrBreakers}
	}
	if node.CabinetSize == nil && c.registry.HasContextPrefix(ContextNodeCabinetPrefix) {
		return Result{}, &MissingAttributeError{Entity: r.ref, Attribute: attrCabinetSize}
	}

	vars := func(name string, value int) formula.Vars {
		return formula.Vars{name: value, "dropLength": c.settings.DropLength}
	}

	if err := r.applySingle(withSuffix(ContextEndpointMount, node.MountSurface), vars("points", mountPoints)); err != nil {
		return Result{}, err
	}

	if incoming := domain.IntOr(node.IncomingLinesCount, 0); incoming > 0 {
		if err := r.applySingle(ContextNodeIncomingCoupling, vars("count", incoming)); err != nil {
			return Result{}, err
		}
	}

	extraSockets := domain.IntOr(node.ExtraSockets, 0)
	terminals := max(minTerminals, minTerminals+terminalsPerExt*extraSockets)
	if err := r.applySingle(ContextNodeLugs, vars("count", terminals)); err != nil {
		return Result{}, err
	}

	if sockets := domain.IntOr(node.BaseSockets, 0) + extraSockets; sockets > 0 {
		if err := r.applySingle(ContextNodeSocketDouble, vars("count", sockets)); err != nil {
			return Result{}, err
		}
	}

	breakers := *node.BaseCircuitBreakers + domain.IntOr(node.ExtraCircuitBreakers, 0)
	if err := r.applySingle(ContextNodeCircuitBreaker, vars("count", breakers)); err != nil {
		return Result{}, err
	}

	if node.CabinetSize == nil {
		r.warn(ContextNodeCabinetPrefix, "cabinet size not set, cabinet skipped")
	} else {
		size := *node.CabinetSize
		key := ContextNodeCabinetPrefix + strconv.Itoa(size)
		if err := r.applySingle(key, vars("cabinetSize", size)); err != nil {
			return Result{}, err
		}
	}

	return r.result, nil
}
