package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/mbb.db")
	if cfg.Database.Path != "/tmp/mbb.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Board.DivergenceLimit != 0 {
		t.Fatalf("expected divergence limit disabled by default, got %d", cfg.Board.DivergenceLimit)
	}
	if !cfg.Refresh.Watch {
		t.Fatal("expected database watch enabled by default")
	}
	if cfg.Refresh.IntervalSeconds != 5 {
		t.Fatalf("unexpected refresh interval %d", cfg.Refresh.IntervalSeconds)
	}
	if !cfg.Logging.File.Enabled {
		t.Fatal("expected file logging enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/mbb.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/mbb.db"

[board]
divergence_limit = 4
show_due_date = false

[refresh]
interval_seconds = 30
watch = false

[keys]
multi_select = "s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/mbb.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Board.DivergenceLimit != 4 {
		t.Fatalf("unexpected divergence limit %d", cfg.Board.DivergenceLimit)
	}
	if cfg.Board.ShowDueDate {
		t.Fatal("expected due_date hidden from config override")
	}
	if cfg.Refresh.IntervalSeconds != 30 || cfg.Refresh.Watch {
		t.Fatalf("unexpected refresh settings %+v", cfg.Refresh)
	}
	if cfg.Keys.MultiSelect != "s" {
		t.Fatalf("unexpected multi_select key %q", cfg.Keys.MultiSelect)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.HTTPBind != "127.0.0.1:8080" {
		t.Fatalf("unexpected http bind %q", cfg.Server.HTTPBind)
	}
}

func TestLoadRejectsNegativeDivergenceLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/mbb.db"

[board]
divergence_limit = -1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err := Load(path, Default("/tmp/default.db"))
	if err == nil {
		t.Fatal("expected error for negative divergence limit")
	}
}

func TestValidateRejectsUnknownSearchStatus(t *testing.T) {
	cfg := Default("/tmp/mbb.db")
	cfg.Search.Statuses = []string{"backlog", "blocked"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown search status")
	}
	if !strings.Contains(err.Error(), "search.statuses[1]") {
		t.Fatalf("expected indexed error, got %v", err)
	}
}

func TestValidateRejectsEndpointCollision(t *testing.T) {
	cfg := Default("/tmp/mbb.db")
	cfg.Server.APIEndpoint = "/mcp"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for colliding endpoints")
	}
}

func TestValidateRejectsBadRefreshSettings(t *testing.T) {
	cfg := Default("/tmp/mbb.db")
	cfg.Refresh.IntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero refresh interval")
	}

	cfg = Default("/tmp/mbb.db")
	cfg.Refresh.EventsPerSecond = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero refresh rate")
	}

	cfg = Default("/tmp/mbb.db")
	cfg.Refresh.Burst = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero refresh burst")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := EnsureConfigDir(path); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.IsDir() {
		t.Fatal("expected config dir to exist")
	}
}
