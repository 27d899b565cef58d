package calc

import (
	"fmt"

	"normcalc/internal/domain"
	"normcalc/internal/formula"
	"normcalc/internal/norms"
)

// EndpointCalculator derives fixing and RJ45 materials for terminal devices
type EndpointCalculator struct {
	base
}

// NewEndpointCalculator creates an endpoint calculator over registry
func NewEndpointCalculator(registry norms.Registry, opts ...Option) *EndpointCalculator {
	return &EndpointCalculator{base: newBase(registry, nil, opts)}
}

// endpointNeedsRJ45 lists which device types terminate a copper line
var endpointNeedsRJ45 = map[domain.DeviceType]bool{
	domain.DeviceTypeCamera:             true,
	domain.DeviceTypeAccessPoint:        true,
	domain.DeviceTypeNetworkOutlet:      true,
	domain.DeviceTypeReader:             true,
	domain.DeviceTypeTurnstile:          false,
	domain.DeviceTypeOtherNetworkDevice: true,
}

// FixingContext returns the fixing context type for a device type
func FixingContext(t domain.DeviceType) string {
	return fmt.Sprintf("ENDPOINT_%s_FIXING", t)
}

// RJ45Context returns the RJ45 context type for a device type
func RJ45Context(t domain.DeviceType) string {
	return fmt.Sprintf("ENDPOINT_%s_RJ45", t)
}

// Calculate sums every norm of the device's fixing and RJ45 contexts.
// An unknown or blank device type yields an empty result and a warning.
func (c *EndpointCalculator) Calculate(device domain.EndpointDevice) (Result, error) {
	r := c.begin(domain.EntityDevice, device.ID)

	typ := device.Type()
	needsRJ45, known := endpointNeedsRJ45[typ]
	if !known {
		r.warn("", fmt.Sprintf("unknown device type %q", device.DeviceType))
		return r.result, nil
	}

	contexts := []string{FixingContext(typ)}
	if needsRJ45 {
		contexts = append(contexts, RJ45Context(typ))
	}

	for _, contextType := range contexts {
		if err := r.applyAll(contextType, formula.Vars{"deviceCount": 1}, false); err != nil {
			return Result{}, err
		}
	}

	return r.result, nil
}
