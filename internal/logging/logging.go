// Package logging provides the shared runtime logger: a styled console sink
// plus a rotating Logfmt file sink. The console sink can be muted while the
// TUI owns the terminal so log lines never bleed into the board.
package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the log level and the optional rotating file sink.
type Config struct {
	Level string
	File  FileConfig
}

// FileConfig tunes the rotating file sink. Zero values fall back to the
// rotation defaults below.
type FileConfig struct {
	Enabled    bool
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Rotation defaults applied when the config leaves a knob at zero.
const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 14
)

// Runtime fans log events to every configured sink.
type Runtime struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	fileSink       io.Closer
	filePath       string
}

// NewRuntime configures runtime log sinks. The console sink writes styled
// text to stderr; when cfg.File.Enabled a Logfmt sink rotates through
// fileDir (cfg.File.Dir overrides fileDir when set).
func NewRuntime(stderr io.Writer, appName string, fileDir string, cfg Config) (*Runtime, error) {
	level, err := charmLog.ParseLevel(levelOrDefault(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		appName = "mbb"
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	rt := &Runtime{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !cfg.File.Enabled {
		return rt, nil
	}

	dir := strings.TrimSpace(cfg.File.Dir)
	if dir == "" {
		dir = strings.TrimSpace(fileDir)
	}
	if dir == "" {
		return nil, fmt.Errorf("file logging enabled without a directory")
	}

	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(dir, appName+".log"),
		MaxSize:    intOrDefault(cfg.File.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: intOrDefault(cfg.File.MaxBackups, defaultMaxBackups),
		MaxAge:     intOrDefault(cfg.File.MaxAgeDays, defaultMaxAgeDays),
		Compress:   cfg.File.Compress,
	}

	// Keep file output parseable and unstyled while preserving styled
	// console logs.
	fileLogger := charmLog.NewWithOptions(rotating, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	rt.sinks = append(rt.sinks, fileLogger)
	rt.fileSink = rotating
	rt.filePath = rotating.Filename
	return rt, nil
}

// FilePath returns the active rotating log file path, empty when the file
// sink is disabled.
func (r *Runtime) FilePath() string {
	if r == nil {
		return ""
	}
	return r.filePath
}

// Close closes the rotating file sink.
func (r *Runtime) Close() error {
	if r == nil || r.fileSink == nil {
		return nil
	}
	return r.fileSink.Close()
}

// SetConsoleEnabled toggles whether the console sink receives events.
func (r *Runtime) SetConsoleEnabled(enabled bool) {
	if r == nil {
		return
	}
	r.consoleEnabled = enabled
}

// ConsoleEnabled reports whether the console sink currently receives events.
func (r *Runtime) ConsoleEnabled() bool {
	return r != nil && r.consoleEnabled
}

// Debug logs a debug event to all active sinks.
func (r *Runtime) Debug(msg string, keyvals ...any) { r.log(charmLog.DebugLevel, msg, keyvals...) }

// Info logs an informational event to all active sinks.
func (r *Runtime) Info(msg string, keyvals ...any) { r.log(charmLog.InfoLevel, msg, keyvals...) }

// Warn logs a warning event to all active sinks.
func (r *Runtime) Warn(msg string, keyvals ...any) { r.log(charmLog.WarnLevel, msg, keyvals...) }

// Error logs an error event to all active sinks.
func (r *Runtime) Error(msg string, keyvals ...any) { r.log(charmLog.ErrorLevel, msg, keyvals...) }

func (r *Runtime) log(level charmLog.Level, msg string, keyvals ...any) {
	if r == nil {
		return
	}
	for _, sink := range r.sinks {
		if sink == r.consoleSink && !r.consoleEnabled {
			continue
		}
		sink.Log(level, msg, keyvals...)
	}
}

func levelOrDefault(level string) string {
	if strings.TrimSpace(level) == "" {
		return "info"
	}
	return level
}

func intOrDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
