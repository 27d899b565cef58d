package codec

import (
	"fmt"
	"io"

	"normcalc/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles catalog YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports and validates a catalog from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Catalog, error) {
	var f catalogFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %w", ErrInvalidCatalog, err)
	}

	if err := validateFile(&f); err != nil {
		return nil, err
	}

	return f.toDomain(), nil
}

// Export exports a catalog to YAML
func (c *YAMLCodec) Export(catalog *domain.Catalog, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(fromDomain(catalog)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
