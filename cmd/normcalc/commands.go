package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"normcalc/internal/codec"
	"normcalc/internal/config"
	"normcalc/internal/engine"
	"normcalc/internal/formula"
	"normcalc/internal/logging"
	"normcalc/internal/norms"
	"normcalc/internal/report"
	"normcalc/internal/repository"
	"normcalc/internal/repository/memory"
	"normcalc/internal/repository/sqlite"
	"normcalc/internal/service"

	"go.uber.org/zap"
)

// commonFlags are shared by commands that build a calculation service
type commonFlags struct {
	configPath string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file for engine settings (default: search standard locations)")
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func (c *commonFlags) load() (*config.Config, *zap.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, _, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Config{Level: c.logLevel, Format: "console"})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func newService(repo repository.Repository, cfg *config.Config, logger *zap.Logger) *service.CalculationService {
	store := norms.NewStore(nil)
	eng := engine.New(repo, store,
		engine.Config{Workers: cfg.Engine.Workers, Settings: cfg.Engine.Settings},
		engine.WithLogger(logger))
	return service.NewCalculationService(repo, store, eng, nil, service.WithLogger(logger))
}

func runCalc(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	catalogPath := fs.String("catalog", "", "norm catalog file (.yaml, .yml, .json); stock catalog if empty")
	projectPath := fs.String("project", "", "project YAML file (required)")
	xlsxPath := fs.String("xlsx", "", "also write the bill of materials workbook to this file")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *projectPath == "" {
		fmt.Fprintln(stderr, "calc: -project is required")
		fs.Usage()
		return errUsage
	}

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc := newService(memory.New(), cfg, logger)

	if *catalogPath != "" {
		if _, err := svc.ImportCatalogFile(ctx, *catalogPath); err != nil {
			return err
		}
	} else if _, err := svc.Seed(ctx); err != nil {
		return err
	}

	f, err := os.Open(*projectPath)
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	project, err := svc.ImportProject(ctx, f)
	f.Close()
	if err != nil {
		return err
	}

	result, err := svc.Run(ctx, project.Calculation.ID)
	if err != nil {
		return err
	}

	if *xlsxPath != "" {
		if err := writeWorkbook(*xlsxPath, project.Calculation.Name, result); err != nil {
			return err
		}
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printBOM(stdout, result)
}

func printBOM(w io.Writer, result *engine.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCATEGORY\tUNIT\tQUANTITY")
	for _, item := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.Code, item.Name, item.Category, item.Unit, formatQuantity(item.Quantity))
	}
	return tw.Flush()
}

func writeWorkbook(path, title string, result *engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}

	err = report.WriteExcel(report.BOM{
		Title:         title,
		CalculationID: result.CalculationID,
		RunID:         result.RunID,
		ExecutedAt:    result.ExecutedAt,
		Items:         result.Items,
		Warnings:      result.Warnings,
	}, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func runSeed(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	dbPath := fs.String("db", "", "SQLite database path (default: from config)")
	catalogPath := fs.String("catalog", "", "catalog file to load instead of the stock catalog; replaces existing norms")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	svc := newService(repo, cfg, logger)

	if *catalogPath != "" {
		snapshot, err := svc.ImportCatalogFile(ctx, *catalogPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %d norms and %d materials into %s\n",
			snapshot.NormCount(), len(snapshot.Materials()), cfg.Database.Path)
		return nil
	}

	seeded, err := svc.Seed(ctx)
	if err != nil {
		return err
	}
	if !seeded {
		fmt.Fprintf(stdout, "Catalog already present in %s, nothing to do\n", cfg.Database.Path)
		return nil
	}
	fmt.Fprintf(stdout, "Seeded stock catalog into %s\n", cfg.Database.Path)
	return nil
}

func runEval(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showPostfix := fs.Bool("postfix", false, "also print the compiled postfix form")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: normcalc eval [-postfix] 'expression' [name=value ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errUsage
	}

	vars, err := parseVars(fs.Args()[1:])
	if err != nil {
		return err
	}

	program, err := formula.Compile(fs.Arg(0))
	if err != nil {
		return err
	}
	value, err := program.Eval(vars)
	if err != nil {
		return err
	}

	if *showPostfix {
		fmt.Fprintf(stdout, "postfix: %s\n", program.Postfix())
	}
	fmt.Fprintln(stdout, formatQuantity(value))
	return nil
}

func parseVars(pairs []string) (formula.Vars, error) {
	vars := make(formula.Vars, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, want name=value", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		vars[name] = v
	}
	return vars, nil
}

func runCatalog(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "yaml", "output format (yaml, json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := codec.ForFormat(*format)
	if c == nil {
		return fmt.Errorf("%w: %q", service.ErrUnsupportedFormat, *format)
	}
	return c.Export(codec.DefaultCatalog(), stdout)
}

func runConfig(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	initPath := fs.String("init", "", "write a default config file to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *initPath != "" {
		if _, err := os.Stat(*initPath); err == nil {
			return fmt.Errorf("%s already exists", *initPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.DefaultConfig().Save(*initPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote default config to %s\n", *initPath)
		return nil
	}

	cfg, path, err := config.Load()
	if err != nil {
		return err
	}
	if path == "" {
		path = "(defaults, no config file found; create one with -init " + config.DefaultConfigPath() + ")"
	}
	fmt.Fprintf(stdout, "Config: %s\n%s\n", path, cfg.Summary())
	return nil
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
