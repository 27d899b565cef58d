package codec

import (
	"bytes"
	_ "embed"
	"fmt"

	"normcalc/internal/domain"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// DefaultCatalog returns the stock catalog. It panics if the embedded file
// does not parse, which the package tests rule out.
func DefaultCatalog() *domain.Catalog {
	catalog, err := NewYAMLCodec().Parse(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return catalog
}

// DefaultCatalogYAML returns the stock catalog source
func DefaultCatalogYAML() []byte {
	return bytes.Clone(defaultCatalogYAML)
}
