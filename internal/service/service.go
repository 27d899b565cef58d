package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"normcalc/internal/codec"
	"normcalc/internal/domain"
	"normcalc/internal/engine"
	"normcalc/internal/formula"
	"normcalc/internal/loader"
	"normcalc/internal/norms"
	"normcalc/internal/report"
	"normcalc/internal/repository"

	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for catalog formats without a codec
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// ReloadRecorder receives catalog reload metrics
type ReloadRecorder interface {
	RecordCatalogReload(err error, norms, materials int)
}

// Option configures a CalculationService
type Option func(*CalculationService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *CalculationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReloadRecorder sets the catalog reload metrics recorder
func WithReloadRecorder(r ReloadRecorder) Option {
	return func(s *CalculationService) {
		s.reloads = r
	}
}

// CalculationService coordinates catalog maintenance, project import and
// calculation passes
type CalculationService struct {
	repo     repository.Repository
	store    *norms.Store
	engine   *engine.Engine
	eventBus *EventBus
	reloads  ReloadRecorder
	logger   *zap.Logger
}

// NewCalculationService creates a new calculation service. The engine must
// read its snapshots from store.
func NewCalculationService(repo repository.Repository, store *norms.Store, eng *engine.Engine, eventBus *EventBus, opts ...Option) *CalculationService {
	s := &CalculationService{
		repo:     repo,
		store:    store,
		engine:   eng,
		eventBus: eventBus,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes a calculation pass and publishes its outcome
func (s *CalculationService) Run(ctx context.Context, calculationID string) (*engine.Result, error) {
	s.publish(EventCalculationStarted, map[string]string{"calculation_id": calculationID})

	result, err := s.engine.Run(ctx, calculationID)
	if err != nil {
		payload := map[string]string{"calculation_id": calculationID, "error": err.Error()}
		s.publish(EventCalculationFailed, payload)
		return nil, err
	}

	s.publish(EventCalculationCompleted, map[string]any{
		"calculation_id": calculationID,
		"run_id":         result.RunID,
		"materials":      len(result.Quantities),
		"warnings":       len(result.Warnings),
	})
	return result, nil
}

// WriteBOM runs a calculation and writes the result to w as an .xlsx workbook
func (s *CalculationService) WriteBOM(ctx context.Context, calculationID string, w io.Writer) error {
	result, err := s.Run(ctx, calculationID)
	if err != nil {
		return err
	}

	title := calculationID
	if calc, err := s.repo.GetCalculation(ctx, calculationID); err == nil && calc != nil && calc.Name != "" {
		title = calc.Name
	}

	return report.WriteExcel(report.BOM{
		Title:         title,
		CalculationID: result.CalculationID,
		RunID:         result.RunID,
		ExecutedAt:    result.ExecutedAt,
		Items:         result.Items,
		Warnings:      result.Warnings,
	}, w)
}

// ReloadCatalog rebuilds the norm snapshot from the repository and swaps it
// in. Passes already running keep the snapshot they started with.
func (s *CalculationService) ReloadCatalog(ctx context.Context) (*norms.Snapshot, error) {
	snapshot, err := norms.Load(ctx, s.repo)
	if err != nil {
		if s.reloads != nil {
			s.reloads.RecordCatalogReload(err, 0, 0)
		}
		return nil, fmt.Errorf("failed to reload catalog: %w", err)
	}

	s.store.Swap(snapshot)
	if s.reloads != nil {
		s.reloads.RecordCatalogReload(nil, snapshot.NormCount(), len(snapshot.Materials()))
	}

	s.logger.Info("catalog reloaded",
		zap.Int("norms", snapshot.NormCount()),
		zap.Int("materials", len(snapshot.Materials())),
		zap.String("digest", snapshot.Digest()))
	s.publish(EventCatalogReloaded, map[string]any{
		"norms":     snapshot.NormCount(),
		"materials": len(snapshot.Materials()),
		"digest":    snapshot.Digest(),
	})
	return snapshot, nil
}

// ImportCatalog parses a catalog in the given format, replaces the stored
// catalog with it and reloads the snapshot
func (s *CalculationService) ImportCatalog(ctx context.Context, r io.Reader, format string) (*norms.Snapshot, error) {
	c := codec.ForFormat(strings.ToLower(format))
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	catalog, err := c.Parse(r)
	if err != nil {
		return nil, err
	}

	return s.replaceCatalog(ctx, catalog)
}

// ImportCatalogFile imports a catalog file, choosing the codec by extension
func (s *CalculationService) ImportCatalogFile(ctx context.Context, path string) (*norms.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return s.ImportCatalog(ctx, bytes.NewReader(data), filepath.Ext(path))
}

// Seed loads the stock catalog when the repository holds no norms. It
// reports whether the catalog was seeded.
func (s *CalculationService) Seed(ctx context.Context) (bool, error) {
	existing, err := s.repo.ListNorms(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list norms: %w", err)
	}
	if len(existing) > 0 {
		if _, err := s.ReloadCatalog(ctx); err != nil {
			return false, err
		}
		return false, nil
	}

	if _, err := s.replaceCatalog(ctx, codec.DefaultCatalog()); err != nil {
		return false, err
	}
	s.logger.Info("seeded default catalog")
	return true, nil
}

func (s *CalculationService) replaceCatalog(ctx context.Context, catalog *domain.Catalog) (*norms.Snapshot, error) {
	if err := s.repo.ImportCatalog(ctx, catalog); err != nil {
		return nil, fmt.Errorf("failed to store catalog: %w", err)
	}
	return s.ReloadCatalog(ctx)
}

// ImportProject parses a project YAML document and stores it, replacing any
// calculation with the same id
func (s *CalculationService) ImportProject(ctx context.Context, r io.Reader) (*domain.Project, error) {
	project, err := loader.ParseYAML(r)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ImportProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to store project: %w", err)
	}

	s.logger.Info("project imported",
		zap.String("calculation", project.Calculation.ID),
		zap.Int("nodes", len(project.Nodes)),
		zap.Int("devices", len(project.Devices)),
		zap.Int("links", len(project.Links)),
		zap.Int("routes", len(project.Routes)))
	s.publish(EventProjectImported, map[string]string{"calculation_id": project.Calculation.ID})
	return project, nil
}

// Norms returns the norms registered under a context type in the current
// snapshot
func (s *CalculationService) Norms(contextType string) []domain.MaterialNorm {
	matched := s.store.Current().ByContextType(domain.ContextKey(contextType))
	if matched == nil {
		matched = []domain.MaterialNorm{}
	}
	return matched
}

// FormulaPreview is the result of evaluating a formula outside a pass
type FormulaPreview struct {
	Formula   string   `json:"formula"`
	Postfix   string   `json:"postfix"`
	Variables []string `json:"variables"`
	Value     float64  `json:"value"`
}

// EvaluateFormula compiles and evaluates expr against vars
func (s *CalculationService) EvaluateFormula(expr string, vars formula.Vars) (*FormulaPreview, error) {
	program, err := formula.Compile(expr)
	if err != nil {
		return nil, err
	}
	value, err := program.Eval(vars)
	if err != nil {
		return nil, err
	}
	return &FormulaPreview{
		Formula:   program.Source(),
		Postfix:   program.Postfix(),
		Variables: program.Variables(),
		Value:     value,
	}, nil
}

func (s *CalculationService) publish(eventType EventType, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(Event{Type: eventType, Payload: payload})
}
