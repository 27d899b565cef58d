package domain

import "time"

// Calculation scopes a set of topology entities for one project estimate
type Calculation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NetworkNode is a cabinet or distribution point.
// Nullable attributes are pointers; nil means the value was never recorded.
type NetworkNode struct {
	ID                   string `json:"id"`
	CalculationID        string `json:"calculation_id"`
	Name                 string `json:"name,omitempty"`
	MountSurface         string `json:"mount_surface,omitempty"`
	CabinetSize          *int   `json:"cabinet_size,omitempty"`
	BaseCircuitBreakers  *int   `json:"base_circuit_breakers,omitempty"`
	ExtraCircuitBreakers *int   `json:"extra_circuit_breakers,omitempty"`
	BaseSockets          *int   `json:"base_sockets,omitempty"`
	ExtraSockets         *int   `json:"extra_sockets,omitempty"`
	IncomingLinesCount   *int   `json:"incoming_lines_count,omitempty"`
}

// EndpointDevice is a terminal device: camera, reader, access point...
type EndpointDevice struct {
	ID            string `json:"id"`
	CalculationID string `json:"calculation_id"`
	Name          string `json:"name,omitempty"`
	DeviceType    string `json:"device_type"`
	MountSurface  string `json:"mount_surface,omitempty"`
	NodeID        string `json:"node_id,omitempty"`
}

// Type returns the parsed device type variant
func (d EndpointDevice) Type() DeviceType {
	return ParseDeviceType(d.DeviceType)
}

// TopologyLink is a point-to-point cable run between nodes and devices
type TopologyLink struct {
	ID                  string   `json:"id"`
	CalculationID       string   `json:"calculation_id"`
	LinkType            string   `json:"link_type"`
	Wireless            bool     `json:"wireless,omitempty"`
	CableLength         *float64 `json:"cable_length,omitempty"`
	FiberCores          *int     `json:"fiber_cores,omitempty"`
	FiberSpliceCount    *int     `json:"fiber_splice_count,omitempty"`
	FiberConnectorCount *int     `json:"fiber_connector_count,omitempty"`
	FromNodeID          string   `json:"from_node_id,omitempty"`
	ToNodeID            string   `json:"to_node_id,omitempty"`
	FromDeviceID        string   `json:"from_device_id,omitempty"`
	ToDeviceID          string   `json:"to_device_id,omitempty"`
}

// Type returns the parsed link type variant
func (l TopologyLink) Type() LinkType {
	return ParseLinkType(l.LinkType)
}

// IsWireless reports whether the link carries no cable
func (l TopologyLink) IsWireless() bool {
	return l.Wireless || l.Type() == LinkTypeWiFi
}

// Touches reports whether the link terminates at the given node
func (l TopologyLink) Touches(nodeID string) bool {
	return nodeID != "" && (l.FromNodeID == nodeID || l.ToNodeID == nodeID)
}

// InstallationRoute is a physical pathway carrying one or more links
type InstallationRoute struct {
	ID               string   `json:"id"`
	CalculationID    string   `json:"calculation_id"`
	Name             string   `json:"name,omitempty"`
	RouteType        string   `json:"route_type"`
	LengthMeters     *float64 `json:"length_meters,omitempty"`
	Orientation      string   `json:"orientation,omitempty"`
	MountSurface     string   `json:"mount_surface,omitempty"`
	FixingMethod     string   `json:"fixing_method,omitempty"`
	MainMaterialCode string   `json:"main_material_code,omitempty"`
}

// Type returns the parsed route type variant
func (r InstallationRoute) Type() RouteType {
	return ParseRouteType(r.RouteType)
}

// RouteSegmentLink records that a link runs through a route
type RouteSegmentLink struct {
	RouteID      string   `json:"route_id"`
	LinkID       string   `json:"link_id"`
	PortionRatio *float64 `json:"portion_ratio,omitempty"`
}

// Project is every topology entity of one calculation
type Project struct {
	Calculation Calculation         `json:"calculation"`
	Nodes       []NetworkNode       `json:"nodes"`
	Devices     []EndpointDevice    `json:"devices"`
	Links       []TopologyLink      `json:"links"`
	Routes      []InstallationRoute `json:"routes"`
	Segments    []RouteSegmentLink  `json:"segments"`
}

// Int returns a pointer to v
func Int(v int) *int { return &v }

// Float returns a pointer to v
func Float(v float64) *float64 { return &v }

// IntOr dereferences p or returns def when p is nil
func IntOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
