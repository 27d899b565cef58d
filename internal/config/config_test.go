package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should not be empty")
	}
	if cfg.Engine.Fiber.CableTemplate != "FIBER_%d_CORES" {
		t.Errorf("Fiber.CableTemplate = %s, want FIBER_%%d_CORES", cfg.Engine.Fiber.CableTemplate)
	}
	if cfg.Engine.Steps.PipeHorizontal != 0.4 {
		t.Errorf("Steps.PipeHorizontal = %v, want 0.4", cfg.Engine.Steps.PipeHorizontal)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /var/lib/normcalc/normcalc.db
engine:
  workers: 4
  fiber:
    cable_template: FIBER_%d
    splice_codes: [FIBER_SPLICE]
    connector_code: FIBER_CONNECTOR
  route_steps:
    wire_rope: 0.25
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}

	if cfg.Database.Path != "/var/lib/normcalc/normcalc.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Engine.Workers)
	}
	if cfg.Engine.Fiber.CableTemplate != "FIBER_%d" {
		t.Errorf("CableTemplate = %s, want FIBER_%%d", cfg.Engine.Fiber.CableTemplate)
	}
	if len(cfg.Engine.Fiber.SpliceCodes) != 1 || cfg.Engine.Fiber.SpliceCodes[0] != "FIBER_SPLICE" {
		t.Errorf("SpliceCodes = %v, want [FIBER_SPLICE]", cfg.Engine.Fiber.SpliceCodes)
	}
	if cfg.Engine.Steps.WireRope != 0.25 {
		t.Errorf("Steps.WireRope = %v, want 0.25", cfg.Engine.Steps.WireRope)
	}
	// Untouched keys keep defaults
	if cfg.Engine.Steps.PipeVertical != 0.5 {
		t.Errorf("Steps.PipeVertical = %v, want 0.5 (default)", cfg.Engine.Steps.PipeVertical)
	}
	if cfg.Engine.DropLength != 3 {
		t.Errorf("DropLength = %v, want 3 (default)", cfg.Engine.DropLength)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want :8080 (default)", cfg.Server.Addr)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"non-positive step", "engine:\n  route_steps:\n    bare_cable: 0\n"},
		{"template without verb", "engine:\n  fiber:\n    cable_template: FIBER\n"},
		{"negative workers", "engine:\n  workers: -1\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad duration", "server:\n  shutdown_timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatalf("WriteFile() error: %v", err)
			}
			if _, _, err := LoadFromPath(path); err == nil {
				t.Error("LoadFromPath() should fail")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Catalog.Path = "/etc/normcalc/catalog.yaml"
	cfg.Catalog.Watch = true
	cfg.Engine.DropLength = 2.5

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}

	if loaded.Catalog.Path != "/etc/normcalc/catalog.yaml" || !loaded.Catalog.Watch {
		t.Errorf("Catalog = %+v", loaded.Catalog)
	}
	if loaded.Engine.DropLength != 2.5 {
		t.Errorf("DropLength = %v, want 2.5", loaded.Engine.DropLength)
	}
	if loaded.Server.ShutdownTimeout.Duration() != 10*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 10s", loaded.Server.ShutdownTimeout.Duration())
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	t.Chdir(tmpDir)

	// Should find config in working directory
	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	// Explicit path that exists wins
	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Catalog.Path = "catalog.yaml"

	summary := cfg.Summary()
	for _, want := range []string{"normcalc.db", ":8080", "catalog.yaml", "workers auto"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Setenv(EnvConfigPath, "/srv/normcalc.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	want := []string{
		"/srv/normcalc.yaml",
		ConfigFileName,
		filepath.Join("/xdg", ConfigDirName, "config.yaml"),
		filepath.Join("/etc", ConfigDirName, "config.yaml"),
	}
	got := SearchPaths()
	if len(got) != len(want) {
		t.Fatalf("SearchPaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SearchPaths()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if got := DefaultConfigPath(); got != want[2] {
		t.Errorf("DefaultConfigPath() = %s, want %s", got, want[2])
	}
}
