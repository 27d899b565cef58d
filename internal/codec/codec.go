package codec

import (
	"io"

	"normcalc/internal/domain"
)

// Importer reads a norm catalog from some format
type Importer interface {
	Parse(r io.Reader) (*domain.Catalog, error)
	Format() string
}

// Exporter writes a norm catalog to some format
type Exporter interface {
	Export(catalog *domain.Catalog, w io.Writer) error
	Format() string
}

// Codec both imports and exports
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for a format name or file extension
// ("yaml", "yml", "json"), or nil
func ForFormat(format string) Codec {
	switch format {
	case "yaml", "yml", ".yaml", ".yml":
		return NewYAMLCodec()
	case "json", ".json":
		return NewJSONCodec()
	default:
		return nil
	}
}

// catalogFile is the on-disk catalog layout shared by the YAML and JSON codecs.
// Norms name their material by code.
type catalogFile struct {
	Materials []materialEntry `yaml:"materials" json:"materials" validate:"dive"`
	Norms     []normEntry     `yaml:"norms" json:"norms" validate:"dive"`
}

type materialEntry struct {
	Code     string `yaml:"code" json:"code" validate:"required"`
	Name     string `yaml:"name" json:"name" validate:"required"`
	Unit     string `yaml:"unit" json:"unit" validate:"required"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

type normEntry struct {
	Context     string `yaml:"context" json:"context" validate:"required"`
	Material    string `yaml:"material" json:"material" validate:"required"`
	Formula     string `yaml:"formula" json:"formula" validate:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// toDomain converts the file layout after validation
func (f *catalogFile) toDomain() *domain.Catalog {
	catalog := domain.NewCatalog()
	for _, m := range f.Materials {
		catalog.AddMaterial(domain.Material{
			Code:     domain.NormalizeKey(m.Code),
			Name:     m.Name,
			Unit:     m.Unit,
			Category: m.Category,
		})
	}
	for _, n := range f.Norms {
		material, _ := catalog.Material(domain.NormalizeKey(n.Material))
		catalog.AddNorm(domain.MaterialNorm{
			ContextType: domain.ContextKey(n.Context),
			Material:    material,
			Formula:     n.Formula,
			Description: n.Description,
		})
	}
	return catalog
}

func fromDomain(catalog *domain.Catalog) *catalogFile {
	f := &catalogFile{
		Materials: make([]materialEntry, 0, len(catalog.Materials)),
		Norms:     make([]normEntry, 0, len(catalog.Norms)),
	}
	for _, m := range catalog.Materials {
		f.Materials = append(f.Materials, materialEntry{
			Code:     m.Code,
			Name:     m.Name,
			Unit:     m.Unit,
			Category: m.Category,
		})
	}
	for _, n := range catalog.Norms {
		f.Norms = append(f.Norms, normEntry{
			Context:     n.ContextType,
			Material:    n.Material.Code,
			Formula:     n.Formula,
			Description: n.Description,
		})
	}
	return f
}
