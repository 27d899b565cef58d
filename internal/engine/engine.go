// Package engine runs a calculation pass: it loads the entities of one
// calculation, fans them out to the calculators and aggregates the result.
//
// A pass reads the norm snapshot once, so catalog reloads during the pass
// are not observed. Entity results are reduced in load order, which makes
// repeated passes over unchanged inputs return identical quantities.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"normcalc/internal/calc"
	"normcalc/internal/domain"
	"normcalc/internal/formula"
	"normcalc/internal/norms"
	"normcalc/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrCalculationNotFound is returned when the source has no such calculation
var ErrCalculationNotFound = errors.New("calculation not found")

// SnapshotProvider hands out the norm snapshot in effect
type SnapshotProvider interface {
	Current() *norms.Snapshot
}

// Recorder receives pass metrics
type Recorder interface {
	RecordCalculation(status string, duration time.Duration)
	RecordEntity(kind domain.EntityKind)
	RecordWarning(kind domain.EntityKind)
}

// Config tunes the engine
type Config struct {
	// Workers bounds concurrent entity calculations; 0 means DefaultWorkers
	Workers  int
	// Settings left at the zero value fall back to calc.DefaultSettings
	Settings calc.Settings
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// Engine runs calculation passes. It is safe for concurrent use.
type Engine struct {
	source    repository.TopologySource
	snapshots SnapshotProvider
	cfg       Config
	cache     *formula.Cache
	logger    *zap.Logger
	recorder  Recorder
}

// New creates an engine reading entities from source and norms from snapshots
func New(source repository.TopologySource, snapshots SnapshotProvider, cfg Config, opts ...Option) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.Settings.IsZero() {
		cfg.Settings = calc.DefaultSettings()
	}
	e := &Engine{
		source:    source,
		snapshots: snapshots,
		cfg:       cfg,
		cache:     &formula.Cache{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EntityCounts tallies the entities a pass processed
type EntityCounts struct {
	Nodes      int `json:"nodes"`
	Devices    int `json:"devices"`
	Links      int `json:"links"`
	FiberLinks int `json:"fiber_links"`
	Routes     int `json:"routes"`
}

// Result is the outcome of one pass
type Result struct {
	CalculationID  string             `json:"calculation_id"`
	RunID          string             `json:"run_id"`
	Quantities     domain.QuantityMap `json:"quantities"`
	Items          []domain.BOMLine   `json:"items"`
	Warnings       []domain.Warning   `json:"warnings"`
	Entities       EntityCounts       `json:"entities"`
	SnapshotDigest string             `json:"snapshot_digest"`
	ExecutedAt     time.Time          `json:"executed_at"`
	Duration       time.Duration      `json:"duration"`
}

// task computes one entity's contribution
type task struct {
	kind domain.EntityKind
	run  func() (calc.Result, error)
}

// Run executes a pass over every entity of calculationID. The first fatal
// calculator error cancels the pass and is returned wrapped.
func (e *Engine) Run(ctx context.Context, calculationID string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := e.logger.With(zap.String("calculation", calculationID), zap.String("run", runID))

	result, err := e.run(ctx, calculationID, logger)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "failed"
		logger.Error("calculation failed", zap.Error(err), zap.Duration("duration", duration))
	} else {
		result.RunID = runID
		result.ExecutedAt = start
		result.Duration = duration
		logger.Info("calculation completed",
			zap.Int("materials", len(result.Quantities)),
			zap.Int("warnings", len(result.Warnings)),
			zap.Duration("duration", duration))
	}
	if e.recorder != nil {
		e.recorder.RecordCalculation(status, duration)
	}

	return result, err
}

func (e *Engine) run(ctx context.Context, calculationID string, logger *zap.Logger) (*Result, error) {
	calculation, err := e.source.GetCalculation(ctx, calculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load calculation: %w", err)
	}
	if calculation == nil {
		return nil, fmt.Errorf("%w: %s", ErrCalculationNotFound, calculationID)
	}

	snapshot := e.snapshots.Current()

	tasks, counts, err := e.plan(ctx, calculationID, snapshot, logger)
	if err != nil {
		return nil, err
	}

	results, err := e.execute(ctx, tasks)
	if err != nil {
		return nil, err
	}

	agg := calc.NewAggregator()
	for i, r := range results {
		agg.Add(r)
		if e.recorder != nil {
			e.recorder.RecordEntity(tasks[i].kind)
			for _, w := range r.Warnings {
				e.recorder.RecordWarning(w.Entity.Kind)
			}
		}
	}

	return &Result{
		CalculationID:  calculationID,
		Quantities:     agg.Quantities(),
		Items:          agg.BOM(snapshot),
		Warnings:       agg.Warnings(),
		Entities:       counts,
		SnapshotDigest: snapshot.Digest(),
	}, nil
}

// plan loads the entities and builds one task per entity in a fixed order:
// nodes, devices, links, routes
func (e *Engine) plan(ctx context.Context, calculationID string, snapshot *norms.Snapshot, logger *zap.Logger) ([]task, EntityCounts, error) {
	var counts EntityCounts

	nodes, err := e.source.NetworkNodes(ctx, calculationID)
	if err != nil {
		return nil, counts, fmt.Errorf("failed to load nodes: %w", err)
	}
	devices, err := e.source.EndpointDevices(ctx, calculationID)
	if err != nil {
		return nil, counts, fmt.Errorf("failed to load devices: %w", err)
	}
	links, err := e.source.TopologyLinks(ctx, calculationID)
	if err != nil {
		return nil, counts, fmt.Errorf("failed to load links: %w", err)
	}
	routes, err := e.source.InstallationRoutes(ctx, calculationID)
	if err != nil {
		return nil, counts, fmt.Errorf("failed to load routes: %w", err)
	}

	routeLinks, err := e.resolveRouteLinks(ctx, routes, links)
	if err != nil {
		return nil, counts, err
	}

	opts := []calc.Option{
		calc.WithLogger(logger),
		calc.WithCache(e.cache),
		calc.WithSettings(e.cfg.Settings),
	}
	nodeCalc := calc.NewNodeCalculator(snapshot, opts...)
	endpointCalc := calc.NewEndpointCalculator(snapshot, opts...)
	linkCalc := calc.NewLinkCalculator(snapshot, opts...)
	fiberCalc := calc.NewFiberCalculator(snapshot, opts...)
	routeCalc := calc.NewRouteCalculator(snapshot, snapshot, opts...)

	tasks := make([]task, 0, len(nodes)+len(devices)+len(links)+len(routes))

	for _, node := range nodes {
		node := withIncomingCount(node, links)
		tasks = append(tasks, task{domain.EntityNode, func() (calc.Result, error) {
			return nodeCalc.Calculate(node)
		}})
	}
	counts.Nodes = len(nodes)

	for _, device := range devices {
		tasks = append(tasks, task{domain.EntityDevice, func() (calc.Result, error) {
			return endpointCalc.Calculate(device)
		}})
	}
	counts.Devices = len(devices)

	for _, link := range links {
		if link.Type() == domain.LinkTypeFiber && !link.IsWireless() {
			counts.FiberLinks++
			tasks = append(tasks, task{domain.EntityFiber, func() (calc.Result, error) {
				return fiberCalc.Calculate(link)
			}})
			continue
		}
		counts.Links++
		tasks = append(tasks, task{domain.EntityLink, func() (calc.Result, error) {
			return linkCalc.Calculate(link)
		}})
	}

	for _, route := range routes {
		inRoute := routeLinks[route.ID]
		tasks = append(tasks, task{domain.EntityRoute, func() (calc.Result, error) {
			return routeCalc.CalculateForRoute(route, inRoute)
		}})
	}
	counts.Routes = len(routes)

	return tasks, counts, nil
}

// resolveRouteLinks maps route ids to the links recorded as running
// through them. Segments naming unknown links are ignored.
func (e *Engine) resolveRouteLinks(ctx context.Context, routes []domain.InstallationRoute, links []domain.TopologyLink) (map[string][]domain.TopologyLink, error) {
	byID := make(map[string]domain.TopologyLink, len(links))
	for _, l := range links {
		byID[l.ID] = l
	}

	out := make(map[string][]domain.TopologyLink, len(routes))
	for _, route := range routes {
		segments, err := e.source.RouteSegments(ctx, route.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load segments of route %s: %w", route.ID, err)
		}
		seen := make(map[string]bool, len(segments))
		for _, s := range segments {
			if l, ok := byID[s.LinkID]; ok && !seen[s.LinkID] {
				seen[s.LinkID] = true
				out[route.ID] = append(out[route.ID], l)
			}
		}
	}
	return out, nil
}

// withIncomingCount raises the node's incoming line count to the number of
// links terminating at it
func withIncomingCount(node domain.NetworkNode, links []domain.TopologyLink) domain.NetworkNode {
	touching := 0
	for _, l := range links {
		if l.Touches(node.ID) {
			touching++
		}
	}
	if recorded := domain.IntOr(node.IncomingLinesCount, 0); touching > recorded {
		node.IncomingLinesCount = domain.Int(touching)
	}
	return node
}

// execute runs tasks on a bounded pool and returns results by task index
func (e *Engine) execute(ctx context.Context, tasks []task) ([]calc.Result, error) {
	results := make([]calc.Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s calculation panicked: %v", tasks[i].kind, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := tasks[i].run()
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
