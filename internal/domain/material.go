package domain

// Material is an immutable catalog entry. Code is the canonical identity.
type Material struct {
	Code     string `json:"code" yaml:"code"`
	Name     string `json:"name" yaml:"name"`
	Unit     string `json:"unit" yaml:"unit"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// MaterialNorm binds a material and a quantity formula to a context type
type MaterialNorm struct {
	ID          int64    `json:"id,omitempty"`
	ContextType string   `json:"context_type"`
	Material    Material `json:"material"`
	Formula     string   `json:"formula"`
	Description string   `json:"description,omitempty"`
}

// Catalog is a set of materials and the norms referencing them
type Catalog struct {
	Materials []Material     `json:"materials"`
	Norms     []MaterialNorm `json:"norms"`
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		Materials: make([]Material, 0),
		Norms:     make([]MaterialNorm, 0),
	}
}

// AddMaterial appends a material, replacing an earlier entry with the same code
func (c *Catalog) AddMaterial(m Material) {
	for i := range c.Materials {
		if c.Materials[i].Code == m.Code {
			c.Materials[i] = m
			return
		}
	}
	c.Materials = append(c.Materials, m)
}

// AddNorm appends a norm
func (c *Catalog) AddNorm(n MaterialNorm) {
	c.Norms = append(c.Norms, n)
}

// Material returns the catalog material with the given code
func (c *Catalog) Material(code string) (Material, bool) {
	for _, m := range c.Materials {
		if m.Code == code {
			return m, true
		}
	}
	return Material{}, false
}
