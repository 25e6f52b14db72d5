package tui

import (
	"time"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

// TaskFieldConfig selects which secondary task fields columns render.
type TaskFieldConfig struct {
	ShowPriority bool
	ShowDueDate  bool
}

// SearchFilterConfig narrows the search feed to the configured statuses and
// priorities. Empty slices leave the corresponding dimension unfiltered.
type SearchFilterConfig struct {
	Statuses   []domain.Status
	Priorities []domain.Priority
}

// RuntimeConfig carries board behavior settings resolved from the config
// file: reconciliation divergence limit, background refresh cadence, search
// filters, and key overrides.
type RuntimeConfig struct {
	DivergenceLimit int
	RefreshInterval time.Duration
	WatchEnabled    bool
	Keys            KeyOverrides
	TaskFields      TaskFieldConfig
	Search          SearchFilterConfig
}

// Option defines a functional option for model configuration.
type Option func(*Model)

// DefaultTaskFieldConfig returns the default secondary-field visibility.
func DefaultTaskFieldConfig() TaskFieldConfig {
	return TaskFieldConfig{
		ShowPriority: true,
		ShowDueDate:  true,
	}
}

// DefaultRuntimeConfig returns runtime defaults matching the config package.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DivergenceLimit: 0,
		RefreshInterval: 5 * time.Second,
		WatchEnabled:    true,
		TaskFields:      DefaultTaskFieldConfig(),
	}
}

// WithRuntimeConfig applies config-file settings to the model.
func WithRuntimeConfig(cfg RuntimeConfig) Option {
	return func(m *Model) {
		if cfg.RefreshInterval <= 0 {
			cfg.RefreshInterval = DefaultRuntimeConfig().RefreshInterval
		}
		m.runtime = cfg
		m.keys = newKeyMap(cfg.Keys)
		m.recon.SetDivergenceLimit(cfg.DivergenceLimit)
	}
}

// WithTaskFieldConfig overrides the secondary-field visibility only.
func WithTaskFieldConfig(cfg TaskFieldConfig) Option {
	return func(m *Model) {
		m.runtime.TaskFields = cfg
	}
}

// WithWatcher attaches a storage watcher channel; each receive triggers one
// background refetch.
func WithWatcher(events <-chan struct{}) Option {
	return func(m *Model) {
		m.watchEvents = events
	}
}

// WithLogger attaches an event logger. Nil is allowed and keeps the model
// silent.
func WithLogger(logger Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}
