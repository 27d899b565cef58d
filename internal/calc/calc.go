// Package calc turns topology entities into material quantities.
//
// Each calculator maps one entity to a Result: a QuantityMap keyed by
// material code plus the warnings raised on the way. Node, endpoint and link
// calculators treat a missing norm as a warning. Fiber and route calculators
// treat missing data, missing materials and missing norms as fatal and
// return a typed error naming the entity.
//
// Calculators hold no mutable state beyond the shared formula cache and are
// safe for concurrent use.
package calc

import (
	"math"

	"normcalc/internal/domain"
	"normcalc/internal/formula"
	"normcalc/internal/norms"

	"go.uber.org/zap"
)

// FiberCodes names the materials the fiber calculator looks up directly
type FiberCodes struct {
	// CableTemplate is formatted with the core count, e.g. FIBER_%d_CORES
	CableTemplate string   `yaml:"cable_template" validate:"required,contains=%d"`
	SpliceCodes   []string `yaml:"splice_codes"`
	ConnectorCode string   `yaml:"connector_code" validate:"required"`
}

// RouteSteps are the fixing intervals in meters bound as the step variable
type RouteSteps struct {
	PipeHorizontal  float64 `yaml:"pipe_horizontal" validate:"gt=0"`
	PipeVertical    float64 `yaml:"pipe_vertical" validate:"gt=0"`
	CableChannel    float64 `yaml:"cable_channel" validate:"gt=0"`
	TrayOrStructure float64 `yaml:"tray_or_structure" validate:"gt=0"`
	WireRope        float64 `yaml:"wire_rope" validate:"gt=0"`
	BareCable       float64 `yaml:"bare_cable" validate:"gt=0"`
}

// Settings tunes calculator constants
type Settings struct {
	Fiber FiberCodes `yaml:"fiber"`
	Steps RouteSteps `yaml:"route_steps"`
	// DropLength is the standard cabinet drop length in meters, bound as
	// dropLength in node formulas
	DropLength float64 `yaml:"drop_length" validate:"gte=0"`
}

// IsZero reports whether s is the zero value, i.e. no settings were given
func (s Settings) IsZero() bool {
	return s.Fiber.CableTemplate == "" && len(s.Fiber.SpliceCodes) == 0 && s.Fiber.ConnectorCode == "" &&
		s.Steps == (RouteSteps{}) && s.DropLength == 0
}

// DefaultSettings returns the stock codes and steps
func DefaultSettings() Settings {
	return Settings{
		Fiber: FiberCodes{
			CableTemplate: "FIBER_%d_CORES",
			SpliceCodes:   []string{"FIBER_SPLICE_SLEEVE", "FIBER_SPLICE_CASSETTE"},
			ConnectorCode: "FIBER_CONNECTOR",
		},
		Steps: RouteSteps{
			PipeHorizontal:  0.4,
			PipeVertical:    0.5,
			CableChannel:    0.4,
			TrayOrStructure: 0.5,
			WireRope:        0.3,
			BareCable:       0.4,
		},
		DropLength: 3,
	}
}

// Option configures a calculator
type Option func(*base)

// WithLogger sets the logger warnings are written to
func WithLogger(logger *zap.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithCache shares a compiled formula cache
func WithCache(cache *formula.Cache) Option {
	return func(b *base) {
		if cache != nil {
			b.cache = cache
		}
	}
}

// WithSettings overrides DefaultSettings
func WithSettings(s Settings) Option {
	return func(b *base) {
		b.settings = s
	}
}

// Result is one entity's contribution
type Result struct {
	Quantities domain.QuantityMap
	Warnings   []domain.Warning
}

// base carries what every calculator shares
type base struct {
	registry  norms.Registry
	materials norms.MaterialLookup
	cache     *formula.Cache
	settings  Settings
	logger    *zap.Logger
}

func newBase(registry norms.Registry, materials norms.MaterialLookup, opts []Option) base {
	b := base{
		registry:  registry,
		materials: materials,
		cache:     &formula.Cache{},
		settings:  DefaultSettings(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// run accumulates one entity's result
type run struct {
	*base
	ref    domain.EntityRef
	result Result
}

func (b *base) begin(kind domain.EntityKind, id string) *run {
	return &run{
		base:   b,
		ref:    domain.EntityRef{Kind: kind, ID: id},
		result: Result{Quantities: domain.QuantityMap{}},
	}
}

func (r *run) warn(contextType, message string) {
	r.result.Warnings = append(r.result.Warnings, domain.Warning{
		Entity:      r.ref,
		ContextType: contextType,
		Message:     message,
	})
	r.logger.Warn(message,
		zap.String("entity", string(r.ref.Kind)),
		zap.String("id", r.ref.ID),
		zap.String("context", contextType))
}

func (r *run) evaluate(norm domain.MaterialNorm, vars formula.Vars) (float64, error) {
	qty, err := r.cache.Evaluate(norm.Formula, vars)
	if err == nil && (math.IsNaN(qty) || math.IsInf(qty, 0)) {
		err = ErrNonFiniteQuantity
	}
	if err != nil {
		return 0, &FormulaError{
			Entity:       r.ref,
			ContextType:  norm.ContextType,
			MaterialCode: norm.Material.Code,
			Err:          err,
		}
	}
	return qty, nil
}

// applySingle applies at most one norm. A missing norm is a warning.
func (r *run) applySingle(contextType string, vars formula.Vars) error {
	norm, ok := r.registry.SingleByContextType(contextType)
	if !ok {
		r.warn(contextType, "no material norm for context")
		return nil
	}
	qty, err := r.evaluate(norm, vars)
	if err != nil {
		return err
	}
	r.result.Quantities.Add(norm.Material.Code, qty)
	return nil
}

// applyAll sums every norm under contextType. With required set a missing
// norm is fatal, otherwise it is a warning.
func (r *run) applyAll(contextType string, vars formula.Vars, required bool) error {
	matched := r.registry.ByContextType(contextType)
	if len(matched) == 0 {
		if required {
			return &NormNotFoundError{Entity: r.ref, ContextType: contextType}
		}
		r.warn(contextType, "no material norm for context")
		return nil
	}
	for _, norm := range matched {
		qty, err := r.evaluate(norm, vars)
		if err != nil {
			return err
		}
		r.result.Quantities.Add(norm.Material.Code, qty)
	}
	return nil
}

// addMaterial adds a directly looked-up material. A missing code is fatal.
func (r *run) addMaterial(code string, qty float64) error {
	if r.materials == nil {
		return &MaterialNotFoundError{Entity: r.ref, Code: code}
	}
	m, ok := r.materials.MaterialByCode(code)
	if !ok {
		return &MaterialNotFoundError{Entity: r.ref, Code: code}
	}
	r.result.Quantities.Add(m.Code, qty)
	return nil
}

// withSuffix appends _SURFACE to key when surface is set
func withSuffix(key, surface string) string {
	if s := domain.ContextKey(surface); s != "" {
		return key + "_" + s
	}
	return key
}
