package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"normcalc/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProject is wrapped by every project validation failure
var ErrInvalidProject = errors.New("invalid project")

var validate = validator.New()

// ProjectYAML represents the YAML file structure
type ProjectYAML struct {
	Calculation CalculationYAML `yaml:"calculation"`
	Nodes       []NodeYAML      `yaml:"nodes,omitempty" validate:"dive"`
	Devices     []DeviceYAML    `yaml:"devices,omitempty" validate:"dive"`
	Links       []LinkYAML      `yaml:"links,omitempty" validate:"dive"`
	Routes      []RouteYAML     `yaml:"routes,omitempty" validate:"dive"`
}

// CalculationYAML represents the calculation header
type CalculationYAML struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name"`
}

// NodeYAML represents a cabinet or distribution point
type NodeYAML struct {
	ID                   string `yaml:"id" validate:"required"`
	Name                 string `yaml:"name,omitempty"`
	MountSurface         string `yaml:"mount_surface,omitempty"`
	CabinetSize          *int   `yaml:"cabinet_size,omitempty" validate:"omitnil,gt=0"`
	BaseCircuitBreakers  *int   `yaml:"base_circuit_breakers,omitempty" validate:"omitnil,gte=0"`
	ExtraCircuitBreakers *int   `yaml:"extra_circuit_breakers,omitempty" validate:"omitnil,gte=0"`
	BaseSockets          *int   `yaml:"base_sockets,omitempty" validate:"omitnil,gte=0"`
	ExtraSockets         *int   `yaml:"extra_sockets,omitempty" validate:"omitnil,gte=0"`
	IncomingLinesCount   *int   `yaml:"incoming_lines_count,omitempty" validate:"omitnil,gte=0"`
}

// DeviceYAML represents an endpoint device
type DeviceYAML struct {
	ID           string `yaml:"id" validate:"required"`
	Name         string `yaml:"name,omitempty"`
	Type         string `yaml:"type"`
	MountSurface string `yaml:"mount_surface,omitempty"`
	Node         string `yaml:"node,omitempty"`
}

// EndpointYAML names one end of a link: a node or a device
type EndpointYAML struct {
	Node   string `yaml:"node,omitempty"`
	Device string `yaml:"device,omitempty"`
}

// LinkYAML represents a cable link
type LinkYAML struct {
	ID             string       `yaml:"id" validate:"required"`
	Type           string       `yaml:"type"`
	Wireless       bool         `yaml:"wireless,omitempty"`
	Length         *float64     `yaml:"length,omitempty"`
	FiberCores     *int         `yaml:"fiber_cores,omitempty" validate:"omitnil,gt=0"`
	FiberSplices   *int         `yaml:"fiber_splices,omitempty" validate:"omitnil,gte=0"`
	FiberConnector *int         `yaml:"fiber_connectors,omitempty" validate:"omitnil,gte=0"`
	From           EndpointYAML `yaml:"from,omitempty"`
	To             EndpointYAML `yaml:"to,omitempty"`
}

// RouteYAML represents an installation route and the links it carries
type RouteYAML struct {
	ID           string          `yaml:"id" validate:"required"`
	Name         string          `yaml:"name,omitempty"`
	Type         string          `yaml:"type"`
	Length       *float64        `yaml:"length,omitempty"`
	Orientation  string          `yaml:"orientation,omitempty"`
	MountSurface string          `yaml:"mount_surface,omitempty"`
	FixingMethod string          `yaml:"fixing_method,omitempty"`
	MainMaterial string          `yaml:"main_material,omitempty"`
	Links        []RouteLinkYAML `yaml:"links,omitempty" validate:"dive"`
}

// RouteLinkYAML is a link carried by a route. It unmarshals from a bare
// link id or from a mapping with an optional portion.
type RouteLinkYAML struct {
	ID      string   `yaml:"id" validate:"required"`
	Portion *float64 `yaml:"portion,omitempty" validate:"omitnil,gt=0,lte=1"`
}

// UnmarshalYAML implements yaml.Unmarshaler
func (r *RouteLinkYAML) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.ID = value.Value
		return nil
	}
	type plain RouteLinkYAML
	return value.Decode((*plain)(r))
}

// LoadYAML loads a project from a YAML file
func LoadYAML(path string) (*domain.Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	return ParseYAML(f)
}

// ParseYAML parses and validates a project. JSON input is accepted too.
func ParseYAML(r io.Reader) (*domain.Project, error) {
	var yamlData ProjectYAML
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&yamlData); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %w", ErrInvalidProject, err)
	}

	if err := validateProject(&yamlData); err != nil {
		return nil, err
	}

	return convertYAMLToProject(&yamlData), nil
}

// validateProject checks field constraints, id uniqueness per entity kind
// and that every reference resolves
func validateProject(y *ProjectYAML) error {
	var errs []error

	if err := validate.Struct(y); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	unique := func(kind string, ids []string) map[string]bool {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id != "" && seen[id] {
				errs = append(errs, fmt.Errorf("%s %s: duplicate id", kind, id))
			}
			seen[id] = true
		}
		return seen
	}

	nodeIDs := make([]string, len(y.Nodes))
	for i, n := range y.Nodes {
		nodeIDs[i] = n.ID
	}
	deviceIDs := make([]string, len(y.Devices))
	for i, d := range y.Devices {
		deviceIDs[i] = d.ID
	}
	linkIDs := make([]string, len(y.Links))
	for i, l := range y.Links {
		linkIDs[i] = l.ID
	}
	routeIDs := make([]string, len(y.Routes))
	for i, r := range y.Routes {
		routeIDs[i] = r.ID
	}

	nodes := unique("node", nodeIDs)
	devices := unique("device", deviceIDs)
	links := unique("link", linkIDs)
	unique("route", routeIDs)

	for _, d := range y.Devices {
		if d.Node != "" && !nodes[d.Node] {
			errs = append(errs, fmt.Errorf("device %s: unknown node %s", d.ID, d.Node))
		}
	}

	checkEnd := func(linkID, side string, e EndpointYAML) {
		if e.Node != "" && e.Device != "" {
			errs = append(errs, fmt.Errorf("link %s: %s names both a node and a device", linkID, side))
		}
		if e.Node != "" && !nodes[e.Node] {
			errs = append(errs, fmt.Errorf("link %s: unknown %s node %s", linkID, side, e.Node))
		}
		if e.Device != "" && !devices[e.Device] {
			errs = append(errs, fmt.Errorf("link %s: unknown %s device %s", linkID, side, e.Device))
		}
	}
	for _, l := range y.Links {
		checkEnd(l.ID, "from", l.From)
		checkEnd(l.ID, "to", l.To)
	}

	for _, r := range y.Routes {
		for _, rl := range r.Links {
			if rl.ID != "" && !links[rl.ID] {
				errs = append(errs, fmt.Errorf("route %s: unknown link %s", r.ID, rl.ID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProject, errors.Join(errs...))
	}
	return nil
}

func convertYAMLToProject(y *ProjectYAML) *domain.Project {
	calcID := y.Calculation.ID
	project := &domain.Project{
		Calculation: domain.Calculation{ID: calcID, Name: y.Calculation.Name},
		Nodes:       make([]domain.NetworkNode, 0, len(y.Nodes)),
		Devices:     make([]domain.EndpointDevice, 0, len(y.Devices)),
		Links:       make([]domain.TopologyLink, 0, len(y.Links)),
		Routes:      make([]domain.InstallationRoute, 0, len(y.Routes)),
	}

	for _, n := range y.Nodes {
		project.Nodes = append(project.Nodes, domain.NetworkNode{
			ID:                   n.ID,
			CalculationID:        calcID,
			Name:                 n.Name,
			MountSurface:         n.MountSurface,
			CabinetSize:          n.CabinetSize,
			BaseCircuitBreakers:  n.BaseCircuitBreakers,
			ExtraCircuitBreakers: n.ExtraCircuitBreakers,
			BaseSockets:          n.BaseSockets,
			ExtraSockets:         n.ExtraSockets,
			IncomingLinesCount:   n.IncomingLinesCount,
		})
	}

	for _, d := range y.Devices {
		project.Devices = append(project.Devices, domain.EndpointDevice{
			ID:            d.ID,
			CalculationID: calcID,
			Name:          d.Name,
			DeviceType:    d.Type,
			MountSurface:  d.MountSurface,
			NodeID:        d.Node,
		})
	}

	for _, l := range y.Links {
		project.Links = append(project.Links, domain.TopologyLink{
			ID:                  l.ID,
			CalculationID:       calcID,
			LinkType:            l.Type,
			Wireless:            l.Wireless,
			CableLength:         l.Length,
			FiberCores:          l.FiberCores,
			FiberSpliceCount:    l.FiberSplices,
			FiberConnectorCount: l.FiberConnector,
			FromNodeID:          l.From.Node,
			ToNodeID:            l.To.Node,
			FromDeviceID:        l.From.Device,
			ToDeviceID:          l.To.Device,
		})
	}

	for _, r := range y.Routes {
		project.Routes = append(project.Routes, domain.InstallationRoute{
			ID:               r.ID,
			CalculationID:    calcID,
			Name:             r.Name,
			RouteType:        r.Type,
			LengthMeters:     r.Length,
			Orientation:      r.Orientation,
			MountSurface:     r.MountSurface,
			FixingMethod:     r.FixingMethod,
			MainMaterialCode: domain.NormalizeKey(r.MainMaterial),
		})
		for _, rl := range r.Links {
			project.Segments = append(project.Segments, domain.RouteSegmentLink{
				RouteID:      r.ID,
				LinkID:       rl.ID,
				PortionRatio: rl.Portion,
			})
		}
	}

	return project
}
