package codec

import (
	"errors"
	"fmt"

	"normcalc/internal/domain"
	"normcalc/internal/formula"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidCatalog is wrapped by every catalog validation failure
var ErrInvalidCatalog = errors.New("invalid catalog")

// validateFile checks field constraints, duplicate material codes, that
// every norm names a known material and that every formula compiles. All
// problems are reported together.
func validateFile(f *catalogFile) error {
	var errs []error

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	codes := make(map[string]bool, len(f.Materials))
	for i, m := range f.Materials {
		code := domain.NormalizeKey(m.Code)
		if code == "" {
			continue
		}
		if codes[code] {
			errs = append(errs, fmt.Errorf("materials[%d]: duplicate code %s", i, code))
		}
		codes[code] = true
	}

	for i, n := range f.Norms {
		if code := domain.NormalizeKey(n.Material); code != "" && !codes[code] {
			errs = append(errs, fmt.Errorf("norms[%d] %s: unknown material %s", i, n.Context, code))
		}
		if n.Formula == "" {
			continue
		}
		if _, err := formula.Compile(n.Formula); err != nil {
			errs = append(errs, fmt.Errorf("norms[%d] %s: %w", i, n.Context, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// Validate checks a domain catalog the way Parse checks a file
func Validate(catalog *domain.Catalog) error {
	return validateFile(fromDomain(catalog))
}
