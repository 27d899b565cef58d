package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"normcalc/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `
calculation:
  id: calc-1
  name: Warehouse
nodes:
  - id: n1
    mount_surface: wall
    cabinet_size: 400
    base_circuit_breakers: 2
devices:
  - id: d1
    type: camera
    node: n1
links:
  - id: l1
    type: UTP
    length: 42.5
    from: {node: n1}
    to: {device: d1}
  - id: l2
    type: FIBER
    length: 120
    fiber_cores: 8
    fiber_splices: 2
  - id: l3
    type: wifi
    wireless: true
routes:
  - id: r1
    type: corrugated_pipe
    length: 150
    orientation: horizontal
    main_material: pipe-corrugated-20
    links:
      - l1
      - {id: l2, portion: 0.5}
`

func TestParseYAML(t *testing.T) {
	p, err := ParseYAML(strings.NewReader(sampleProject))
	require.NoError(t, err)

	assert.Equal(t, domain.Calculation{ID: "calc-1", Name: "Warehouse"}, p.Calculation)

	require.Len(t, p.Nodes, 1)
	assert.Equal(t, "calc-1", p.Nodes[0].CalculationID)
	assert.Equal(t, 400, *p.Nodes[0].CabinetSize)
	assert.Nil(t, p.Nodes[0].ExtraSockets)

	require.Len(t, p.Devices, 1)
	assert.Equal(t, domain.DeviceTypeCamera, p.Devices[0].Type())
	assert.Equal(t, "n1", p.Devices[0].NodeID)

	require.Len(t, p.Links, 3)
	assert.Equal(t, "n1", p.Links[0].FromNodeID)
	assert.Equal(t, "d1", p.Links[0].ToDeviceID)
	assert.Equal(t, 8, *p.Links[1].FiberCores)
	assert.Nil(t, p.Links[1].FiberConnectorCount)
	assert.True(t, p.Links[2].IsWireless())

	require.Len(t, p.Routes, 1)
	assert.Equal(t, "PIPE_CORRUGATED_20", p.Routes[0].MainMaterialCode)
	assert.Equal(t, domain.RouteTypeCorrugatedPipe, p.Routes[0].Type())

	require.Len(t, p.Segments, 2)
	assert.Equal(t, domain.RouteSegmentLink{RouteID: "r1", LinkID: "l1"}, p.Segments[0])
	assert.Equal(t, 0.5, *p.Segments[1].PortionRatio)
}

func TestParseJSON(t *testing.T) {
	data := `{"calculation": {"id": "c"}, "links": [{"id": "l1", "type": "POWER", "length": 10}]}`
	p, err := ParseYAML(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, p.Links, 1)
	assert.Equal(t, 10.0, *p.Links[0].CableLength)
}

func TestParseYAMLRejectsInvalidProject(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing calculation id", "nodes: []\n", "Calculation.ID"},
		{"duplicate link", "calculation: {id: c}\nlinks:\n  - {id: l1}\n  - {id: l1}\n", "link l1: duplicate id"},
		{"unknown route link", "calculation: {id: c}\nroutes:\n  - {id: r1, links: [nope]}\n", "route r1: unknown link nope"},
		{"unknown device node", "calculation: {id: c}\ndevices:\n  - {id: d1, node: n9}\n", "unknown node n9"},
		{"both ends", "calculation: {id: c}\nnodes: [{id: n1}]\ndevices: [{id: d1}]\nlinks:\n  - {id: l1, from: {node: n1, device: d1}}\n", "both a node and a device"},
		{"negative breakers", "calculation: {id: c}\nnodes:\n  - {id: n1, base_circuit_breakers: -1}\n", "BaseCircuitBreakers"},
		{"portion above one", "calculation: {id: c}\nlinks: [{id: l1}]\nroutes:\n  - {id: r1, links: [{id: l1, portion: 2}]}\n", "Portion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProject), "expected ErrInvalidProject, got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseYAMLRejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML(strings.NewReader("calculation: {id: c}\nnodez: []\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProject), "expected ErrInvalidProject, got %v", err)
	assert.Contains(t, err.Error(), "nodez")
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleProject), 0644))

	p, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "calc-1", p.Calculation.ID)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
