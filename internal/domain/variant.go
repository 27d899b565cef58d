package domain

import "strings"

// ContextKey trims and uppercases a norm context type. Unlike NormalizeKey
// it keeps '-' and ' ', so BRICK-WALL and BRICK_WALL are distinct keys.
func ContextKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeKey trims, uppercases and replaces '-' and ' ' with '_'.
// It is used for free-form type fields and material codes.
func NormalizeKey(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return '_'
		}
		return r
	}, s)
}

// DeviceType is the endpoint device variant
type DeviceType string

const (
	DeviceTypeCamera             DeviceType = "CAMERA"
	DeviceTypeAccessPoint        DeviceType = "ACCESS_POINT"
	DeviceTypeNetworkOutlet      DeviceType = "NETWORK_OUTLET"
	DeviceTypeReader             DeviceType = "READER"
	DeviceTypeTurnstile          DeviceType = "TURNSTILE"
	DeviceTypeOtherNetworkDevice DeviceType = "OTHER_NETWORK_DEVICE"
	DeviceTypeUnknown            DeviceType = "UNKNOWN"
)

var deviceTypes = map[string]DeviceType{
	string(DeviceTypeCamera):             DeviceTypeCamera,
	string(DeviceTypeAccessPoint):        DeviceTypeAccessPoint,
	string(DeviceTypeNetworkOutlet):      DeviceTypeNetworkOutlet,
	string(DeviceTypeReader):             DeviceTypeReader,
	string(DeviceTypeTurnstile):          DeviceTypeTurnstile,
	string(DeviceTypeOtherNetworkDevice): DeviceTypeOtherNetworkDevice,
}

// ParseDeviceType normalizes s; unrecognized or blank input yields DeviceTypeUnknown
func ParseDeviceType(s string) DeviceType {
	if t, ok := deviceTypes[NormalizeKey(s)]; ok {
		return t
	}
	return DeviceTypeUnknown
}

// LinkType is the cable link variant
type LinkType string

const (
	LinkTypeUTP     LinkType = "UTP"
	LinkTypePower   LinkType = "POWER"
	LinkTypeFiber   LinkType = "FIBER"
	LinkTypeWiFi    LinkType = "WIFI"
	LinkTypeUnknown LinkType = "UNKNOWN"
)

// ParseLinkType normalizes s; unrecognized or blank input yields LinkTypeUnknown
func ParseLinkType(s string) LinkType {
	switch t := LinkType(NormalizeKey(s)); t {
	case LinkTypeUTP, LinkTypePower, LinkTypeFiber, LinkTypeWiFi:
		return t
	case "WI_FI", "WIRELESS":
		return LinkTypeWiFi
	default:
		return LinkTypeUnknown
	}
}

// RouteType is the installation route variant
type RouteType string

const (
	RouteTypeCorrugatedPipe  RouteType = "CORRUGATED_PIPE"
	RouteTypeCableChannel    RouteType = "CABLE_CHANNEL"
	RouteTypeTrayOrStructure RouteType = "TRAY_OR_STRUCTURE"
	RouteTypeWireRope        RouteType = "WIRE_ROPE"
	RouteTypeBareCable       RouteType = "BARE_CABLE"
	RouteTypeUnknown         RouteType = "UNKNOWN"
)

// ParseRouteType normalizes s; unrecognized or blank input yields RouteTypeUnknown
func ParseRouteType(s string) RouteType {
	switch t := RouteType(NormalizeKey(s)); t {
	case RouteTypeCorrugatedPipe, RouteTypeCableChannel, RouteTypeTrayOrStructure,
		RouteTypeWireRope, RouteTypeBareCable:
		return t
	default:
		return RouteTypeUnknown
	}
}

// Orientation of a corrugated pipe run
type Orientation string

const (
	OrientationHorizontal Orientation = "HORIZONTAL"
	OrientationVertical   Orientation = "VERTICAL"
	OrientationUnknown    Orientation = "UNKNOWN"
)

// ParseOrientation normalizes s; unrecognized or blank input yields OrientationUnknown
func ParseOrientation(s string) Orientation {
	switch o := Orientation(NormalizeKey(s)); o {
	case OrientationHorizontal, OrientationVertical:
		return o
	default:
		return OrientationUnknown
	}
}

// FixingMethod for bare cable routes
type FixingMethod string

const (
	FixingMethodOneClip FixingMethod = "ONE_CLIP"
	FixingMethodPETies  FixingMethod = "PE_TIES"
	FixingMethodUnknown FixingMethod = "UNKNOWN"
)

// ParseFixingMethod normalizes s; unrecognized or blank input yields FixingMethodUnknown
func ParseFixingMethod(s string) FixingMethod {
	switch f := FixingMethod(NormalizeKey(s)); f {
	case FixingMethodOneClip, FixingMethodPETies:
		return f
	default:
		return FixingMethodUnknown
	}
}

// MountSurface values seen in practice. Surfaces are kept as free text on
// entities since they only ever become context key suffixes.
const (
	MountSurfaceWall    = "WALL"
	MountSurfaceCeiling = "CEILING"
	MountSurfacePole    = "POLE"
	MountSurfaceRack    = "RACK"
)
