package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"normcalc/internal/domain"
)

// JSONCodec handles catalog JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports and validates a catalog from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Catalog, error) {
	var f catalogFile
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %w", ErrInvalidCatalog, err)
	}

	if err := validateFile(&f); err != nil {
		return nil, err
	}

	return f.toDomain(), nil
}

// Export exports a catalog to JSON
func (c *JSONCodec) Export(catalog *domain.Catalog, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(fromDomain(catalog)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
