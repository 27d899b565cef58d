// Package config provides configuration management for normcalc.
//
// The config file carries deployment settings: where the database lives,
// which catalog file seeds the norms, and the calculator constants. Norms
// and topology live in the database.
//
// Config file locations (priority order):
//  1. $NORMCALC_CONFIG
//  2. ./normcalc.yaml
//  3. ~/.config/normcalc/config.yaml
//  4. /etc/normcalc/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"normcalc/internal/calc"
	"normcalc/internal/logging"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path. Keys missing from the
// file keep their default values.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := ensureParentDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Database: DatabaseConfig{Path: "./normcalc.db"},
		Catalog:  CatalogConfig{Debounce: Duration(500 * time.Millisecond)},
		Engine:   EngineConfig{Settings: calc.DefaultSettings()},
		Logging:  logging.Config{Level: "info", Format: "json"},
		Server: ServerConfig{
			Addr:            ":8080",
			Metrics:         true,
			ShutdownTimeout: Duration(10 * time.Second),
		},
	}
}

// applyDefaults fills in values a file set to empty
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = "./normcalc.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Catalog.Debounce <= 0 {
		c.Catalog.Debounce = Duration(500 * time.Millisecond)
	}

	def := calc.DefaultSettings()
	if c.Engine.Fiber.CableTemplate == "" {
		c.Engine.Fiber.CableTemplate = def.Fiber.CableTemplate
	}
	if c.Engine.Fiber.ConnectorCode == "" {
		c.Engine.Fiber.ConnectorCode = def.Fiber.ConnectorCode
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Database: %s, Server: %s\n", c.Database.Path, c.Server.Addr)
	if c.Catalog.Path != "" {
		summary += fmt.Sprintf("Catalog: %s (watch: %v)\n", c.Catalog.Path, c.Catalog.Watch)
	}
	workers := "auto"
	if c.Engine.Workers > 0 {
		workers = fmt.Sprintf("%d", c.Engine.Workers)
	}
	summary += fmt.Sprintf("Engine: workers %s, fiber cable %s, drop length %gm",
		workers, c.Engine.Fiber.CableTemplate, c.Engine.DropLength)

	return summary
}
