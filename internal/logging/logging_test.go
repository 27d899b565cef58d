package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
	}{
		{"debug", true},
		{"info", false},
		{"", false},
		{"bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(Config{Level: tt.level, OutputPath: filepath.Join(t.TempDir(), "log")})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := logger.Core().Enabled(zap.DebugLevel); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
		})
	}
}

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normcalc.log")

	logger, err := New(Config{Level: "info", OutputPath: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("calculation completed", zap.String("calculation", "calc-1"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	line := string(data)
	for _, want := range []string{`"msg":"calculation completed"`, `"calculation":"calc-1"`, `"service":"normcalc"`} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %s in %s", want, line)
		}
	}
}

func TestMustFallsBack(t *testing.T) {
	logger := Must(Config{OutputPath: filepath.Join(t.TempDir(), "missing", "dir", "log")})
	if logger == nil {
		t.Fatal("Must() returned nil")
	}
}
