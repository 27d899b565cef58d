package calc

import (
	"errors"
	"fmt"

	"normcalc/internal/domain"
)

// Sentinels matched by the typed errors below via errors.Is
var (
	ErrMissingAttribute     = errors.New("missing required attribute")
	ErrMaterialNotFound     = errors.New("material not found")
	ErrNormNotFound         = errors.New("material norm not found")
	ErrUnsupportedValue     = errors.New("unsupported value")
	ErrUnsupportedRouteType = errors.New("unsupported route type")
	ErrNonFiniteQuantity    = errors.New("formula produced a non-finite quantity")
)

// MissingAttributeError reports a required entity attribute with no value
type MissingAttributeError struct {
	Entity    domain.EntityRef
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("%s: missing required attribute %s", e.Entity, e.Attribute)
}

func (e *MissingAttributeError) Is(target error) bool { return target == ErrMissingAttribute }

// Ref returns the offending entity
func (e *MissingAttributeError) Ref() domain.EntityRef { return e.Entity }

// MaterialNotFoundError reports a direct material code lookup that failed
type MaterialNotFoundError struct {
	Entity domain.EntityRef
	Code   string
}

func (e *MaterialNotFoundError) Error() string {
	return fmt.Sprintf("%s: material %s not found", e.Entity, e.Code)
}

func (e *MaterialNotFoundError) Is(target error) bool { return target == ErrMaterialNotFound }

// Ref returns the offending entity
func (e *MaterialNotFoundError) Ref() domain.EntityRef { return e.Entity }

// NormNotFoundError reports a mandatory context with no norms
type NormNotFoundError struct {
	Entity      domain.EntityRef
	ContextType string
}

func (e *NormNotFoundError) Error() string {
	return fmt.Sprintf("%s: no material norm for context %s", e.Entity, e.ContextType)
}

func (e *NormNotFoundError) Is(target error) bool { return target == ErrNormNotFound }

// Ref returns the offending entity
func (e *NormNotFoundError) Ref() domain.EntityRef { return e.Entity }

// UnsupportedValueError reports an enumerated attribute outside the accepted set
type UnsupportedValueError struct {
	Entity    domain.EntityRef
	Attribute string
	Value     string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("%s: unsupported %s %q", e.Entity, e.Attribute, e.Value)
}

func (e *UnsupportedValueError) Is(target error) bool {
	if target == ErrUnsupportedValue {
		return true
	}
	return target == ErrUnsupportedRouteType && e.Attribute == attrRouteType
}

// Ref returns the offending entity
func (e *UnsupportedValueError) Ref() domain.EntityRef { return e.Entity }

// FormulaError wraps a formula failure with the norm it came from
type FormulaError struct {
	Entity       domain.EntityRef
	ContextType  string
	MaterialCode string
	Err          error
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("%s: norm %s/%s: %v", e.Entity, e.ContextType, e.MaterialCode, e.Err)
}

func (e *FormulaError) Unwrap() error { return e.Err }

// Ref returns the offending entity
func (e *FormulaError) Ref() domain.EntityRef { return e.Entity }

// EntityOf extracts the entity a calculation error refers to
func EntityOf(err error) (domain.EntityRef, bool) {
	var r interface{ Ref() domain.EntityRef }
	if errors.As(err, &r) {
		return r.Ref(), true
	}
	return domain.EntityRef{}, false
}

const (
	attrRouteType    = "routeType"
	attrLength       = "lengthMeters"
	attrOrientation  = "orientation"
	attrFixingMethod = "fixingMethod"
	attrCableLength  = "cableLength"
	attrFiberCores   = "fiberCores"
	attrBreakers     = "baseCircuitBreakers"
	attrCabinetSize  = "cabinetSize"
)
