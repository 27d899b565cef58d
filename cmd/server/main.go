package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"normcalc/internal/config"
	"normcalc/internal/engine"
	"normcalc/internal/handler"
	"normcalc/internal/hub"
	"normcalc/internal/logging"
	"normcalc/internal/metrics"
	"normcalc/internal/norms"
	"normcalc/internal/repository/sqlite"
	"normcalc/internal/service"
	"normcalc/internal/watcher"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 10 << 20

func main() {
	// Command line flags
	configPath := flag.String("config", "", "config file (default: $NORMCALC_CONFIG, ./normcalc.yaml, user and system config)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if path != "" {
		logger.Info("config loaded", zap.String("path", path))
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()
	logger.Info("database opened", zap.String("path", cfg.Database.Path))

	registry := metrics.NewRegistry()
	store := norms.NewStore(nil)

	eng := engine.New(repo, store,
		engine.Config{Workers: cfg.Engine.Workers, Settings: cfg.Engine.Settings},
		engine.WithLogger(logger.Named("engine")),
		engine.WithRecorder(registry))

	eventBus := service.NewEventBus()
	svc := service.NewCalculationService(repo, store, eng, eventBus,
		service.WithLogger(logger.Named("service")),
		service.WithReloadRecorder(registry))

	if err := loadCatalog(ctx, cfg, svc); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// Relay service events to /api/events subscribers
	sseHub := hub.New(logger.Named("sse"))
	g.Go(func() error {
		sseHub.Run(gctx)
		return nil
	})

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	g.Go(func() error {
		defer eventBus.Unsubscribe(eventChan)
		for {
			select {
			case event := <-eventChan:
				sseHub.Publish(string(event.Type), event)
			case <-gctx.Done():
				return nil
			}
		}
	})

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		w := watcher.New(cfg.Catalog.Path, func(ctx context.Context) {
			if _, err := svc.ImportCatalogFile(ctx, cfg.Catalog.Path); err != nil {
				logger.Warn("catalog reload failed, keeping previous catalog", zap.Error(err))
			}
		}).WithDebounce(cfg.Catalog.Debounce.Duration()).WithLogger(logger.Named("watcher"))

		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("catalog watcher: %w", err)
			}
			return nil
		})
	}

	// Setup routes
	httpLogger := logger.Named("http")
	mux := http.NewServeMux()
	handler.NewCalculationHandler(svc, httpLogger).Register(mux)
	mux.Handle("GET /api/events", sseHub)
	if cfg.Server.Metrics {
		mux.Handle("GET /metrics", registry.Handler())
	}

	finalHandler := handler.Chain(mux,
		handler.Recover(httpLogger),
		handler.Logger(httpLogger),
		handler.Metrics(registry),
		handler.BodyLimit(maxBodyBytes),
	)

	// No write timeout: /api/events streams for the life of the connection
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           finalHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// loadCatalog imports the configured catalog file, or seeds the stock
// catalog into an empty database
func loadCatalog(ctx context.Context, cfg *config.Config, svc *service.CalculationService) error {
	if cfg.Catalog.Path != "" {
		if _, err := svc.ImportCatalogFile(ctx, cfg.Catalog.Path); err != nil {
			return fmt.Errorf("failed to import catalog %s: %w", cfg.Catalog.Path, err)
		}
		return nil
	}

	if _, err := svc.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	return nil
}
