package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Board    BoardConfig    `toml:"board"`
	Search   SearchConfig   `toml:"search"`
	Refresh  RefreshConfig  `toml:"refresh"`
	Logging  LoggingConfig  `toml:"logging"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
	ReadOnly    bool   `toml:"read_only"`
}

// BoardConfig tunes the board display and the reconciler. DivergenceLimit
// bounds how many consecutive mismatched refreshes are tolerated while an
// optimistic projection is pending before the authoritative snapshot is
// force-adopted; zero keeps the optimistic view until a manual reload.
type BoardConfig struct {
	DivergenceLimit int  `toml:"divergence_limit"`
	ShowPriority    bool `toml:"show_priority"`
	ShowDueDate     bool `toml:"show_due_date"`
}

type SearchConfig struct {
	Statuses   []string `toml:"statuses"`
	Priorities []string `toml:"priorities"`
}

// RefreshConfig governs background snapshot refetch while the board is open:
// a periodic tick plus an optional database-file watcher, throttled so
// watcher bursts collapse into bounded refetches.
type RefreshConfig struct {
	IntervalSeconds int     `toml:"interval_seconds"`
	Watch           bool    `toml:"watch"`
	EventsPerSecond float64 `toml:"events_per_second"`
	Burst           int     `toml:"burst"`
}

type LoggingConfig struct {
	Level string        `toml:"level"`
	File  FileLogConfig `toml:"file"`
}

type FileLogConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type KeyConfig struct {
	MultiSelect string `toml:"multi_select"`
	SelectAll   string `toml:"select_all"`
	PlaceMenu   string `toml:"place_menu"`
	MoveMode    string `toml:"move_mode"`
	Jump        string `toml:"jump"`
	Yank        string `toml:"yank"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Board: BoardConfig{
			DivergenceLimit: 0,
			ShowPriority:    true,
			ShowDueDate:     true,
		},
		Search: SearchConfig{
			Statuses: []string{"backlog", "todo", "doing", "done"},
		},
		Refresh: RefreshConfig{
			IntervalSeconds: 5,
			Watch:           true,
			EventsPerSecond: 2,
			Burst:           2,
		},
		Logging: LoggingConfig{
			Level: "info",
			File: FileLogConfig{
				Enabled:    true,
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 14,
				Compress:   true,
			},
		},
		Keys: KeyConfig{
			MultiSelect: "v",
			SelectAll:   "a",
			PlaceMenu:   "p",
			MoveMode:    "m",
			Jump:        ":",
			Yank:        "y",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	if normalizeEndpoint(c.Server.APIEndpoint) == normalizeEndpoint(c.Server.MCPEndpoint) {
		return errors.New("server.api_endpoint and server.mcp_endpoint must differ")
	}

	if c.Board.DivergenceLimit < 0 {
		return fmt.Errorf("board.divergence_limit must be >= 0, got %d", c.Board.DivergenceLimit)
	}

	for i, raw := range c.Search.Statuses {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := domain.ParseStatus(raw); err != nil {
			return fmt.Errorf("search.statuses[%d] references unknown status %q", i, raw)
		}
	}
	for i, raw := range c.Search.Priorities {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := domain.ParsePriority(raw); err != nil {
			return fmt.Errorf("search.priorities[%d] references unknown priority %q", i, raw)
		}
	}

	if c.Refresh.IntervalSeconds < 1 {
		return fmt.Errorf("refresh.interval_seconds must be >= 1, got %d", c.Refresh.IntervalSeconds)
	}
	if c.Refresh.EventsPerSecond <= 0 {
		return fmt.Errorf("refresh.events_per_second must be > 0, got %v", c.Refresh.EventsPerSecond)
	}
	if c.Refresh.Burst < 1 {
		return fmt.Errorf("refresh.burst must be >= 1, got %d", c.Refresh.Burst)
	}

	if c.Logging.File.MaxSizeMB < 0 {
		return fmt.Errorf("logging.file.max_size_mb must be >= 0, got %d", c.Logging.File.MaxSizeMB)
	}
	if c.Logging.File.MaxBackups < 0 {
		return fmt.Errorf("logging.file.max_backups must be >= 0, got %d", c.Logging.File.MaxBackups)
	}
	if c.Logging.File.MaxAgeDays < 0 {
		return fmt.Errorf("logging.file.max_age_days must be >= 0, got %d", c.Logging.File.MaxAgeDays)
	}

	return nil
}

// normalizeEndpoint canonicalizes one endpoint path for collision checks.
func normalizeEndpoint(path string) string {
	return "/" + strings.Trim(strings.TrimSpace(path), "/")
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
