package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/server"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/server/common"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/storage/sqlite"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/app"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/config"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/logging"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/platform"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program abstracts the bubbletea program loop for tests.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program loop; tests swap it out.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// environment is the fully resolved runtime context: paths, config file
// contents, and the overrides that produced them.
type environment struct {
	appName      string
	devMode      bool
	configPath   string
	dbPath       string
	dbOverridden bool
	paths        platform.Paths
	cfg          config.Config
}

// newRootCmd builds the mbb command tree. The bare command opens the board.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "mbb",
		Short:         "Four-column kanban board in the terminal",
		Long:          "mbb keeps a backlog/todo/doing/done board in sqlite and renders it as an interactive terminal UI.\nRun it bare to open the board, or use a subcommand for serving and snapshots.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := resolveEnvironment(*flags)
			if err != nil {
				return err
			}
			return runBoard(env, cmd.ErrOrStderr())
		},
	}

	defaultDev := version == "dev"
	if envDev, ok := parseBoolEnv("MBB_DEV_MODE"); ok {
		defaultDev = envDev
	}
	defaultApp := strings.TrimSpace(os.Getenv("MBB_APP_NAME"))
	if defaultApp == "" {
		defaultApp = "mbb"
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config TOML")
	pf.StringVar(&flags.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&flags.appName, "app", defaultApp, "application name for config/data path resolution")
	pf.BoolVar(&flags.devMode, "dev", defaultDev, "use dev mode paths (<app>-dev)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newImportCmd(flags))
	root.AddCommand(newPathsCmd(flags))
	return root
}

// newServeCmd exposes the board over HTTP: REST API plus an MCP endpoint.
func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		bind     string
		readOnly bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP (REST + MCP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := resolveEnvironment(*flags)
			if err != nil {
				return err
			}
			if bind != "" {
				env.cfg.Server.HTTPBind = bind
			}
			if readOnly {
				env.cfg.Server.ReadOnly = true
			}
			return runServe(cmd.Context(), env, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides config http_bind)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "disable task mutation endpoints")
	return cmd
}

// newExportCmd dumps every task as a versioned JSON snapshot.
func newExportCmd(flags *rootFlags) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the board as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := resolveEnvironment(*flags)
			if err != nil {
				return err
			}
			logger, err := newRuntimeLogger(cmd.ErrOrStderr(), env)
			if err != nil {
				return err
			}
			defer closeLogger(logger, cmd.ErrOrStderr())

			svc, store, err := openService(env, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger, env.cfg.Database.Path)
			return runExport(cmd.Context(), svc, outPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCmd replaces the entire board with a snapshot file.
func newImportCmd(flags *rootFlags) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board from a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			env, err := resolveEnvironment(*flags)
			if err != nil {
				return err
			}
			logger, err := newRuntimeLogger(cmd.ErrOrStderr(), env)
			if err != nil {
				return err
			}
			defer closeLogger(logger, cmd.ErrOrStderr())

			svc, store, err := openService(env, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger, env.cfg.Database.Path)
			return runImport(cmd.Context(), svc, inPath)
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// newPathsCmd prints the resolved config and data locations.
func newPathsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := resolveEnvironment(*flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", env.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", env.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", env.configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", env.paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", env.cfg.Database.Path)
			return nil
		},
	}
}

// resolveEnvironment layers flag, environment, and platform defaults into a
// loaded config. Precedence per value: flag, then MBB_* env var, then the
// platform default.
func resolveEnvironment(flags rootFlags) (environment, error) {
	appName := strings.TrimSpace(flags.appName)
	if appName == "" {
		appName = "mbb"
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: flags.devMode,
	})
	if err != nil {
		return environment{}, fmt.Errorf("resolve platform paths: %w", err)
	}

	configPath := strings.TrimSpace(flags.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("MBB_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	dbPath := strings.TrimSpace(flags.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("MBB_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	if err := config.EnsureConfigDir(configPath); err != nil {
		return environment{}, fmt.Errorf("ensure config dir: %w", err)
	}
	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return environment{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	return environment{
		appName:      appName,
		devMode:      flags.devMode,
		configPath:   configPath,
		dbPath:       cfg.Database.Path,
		dbOverridden: dbOverridden,
		paths:        paths,
		cfg:          cfg,
	}, nil
}

// runBoard opens the sqlite store and hands the terminal to the TUI.
func runBoard(env environment, stderr io.Writer) error {
	logger, err := newRuntimeLogger(stderr, env)
	if err != nil {
		return err
	}
	// Keep TUI rendering clean: runtime logs stay in the file sink while
	// the board is active.
	logger.SetConsoleEnabled(false)
	defer closeLogger(logger, stderr)

	logger.Info("startup configuration resolved", "app", env.appName, "dev_mode", env.devMode, "command", "board")
	logger.Debug("runtime paths resolved", "config_path", env.configPath, "data_dir", env.paths.DataDir, "db_path", env.cfg.Database.Path)
	if logPath := logger.FilePath(); logPath != "" {
		logger.Info("file logging enabled", "path", logPath)
	}

	svc, store, err := openService(env, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger, env.cfg.Database.Path)

	opts := []tui.Option{
		tui.WithRuntimeConfig(toRuntimeConfig(env.cfg)),
		tui.WithLogger(logger),
	}
	if env.cfg.Refresh.Watch {
		watcher, watchErr := tui.NewStorageWatcher(env.cfg.Database.Path, env.cfg.Refresh.EventsPerSecond, env.cfg.Refresh.Burst)
		if watchErr != nil {
			// The periodic refresh still covers external changes.
			logger.Warn("database watcher unavailable", "db_path", env.cfg.Database.Path, "err", watchErr)
		} else {
			defer func() {
				if closeErr := watcher.Close(); closeErr != nil {
					logger.Warn("database watcher close failed", "err", closeErr)
				}
			}()
			opts = append(opts, tui.WithWatcher(watcher.Events()))
		}
	}

	m := tui.NewModel(svc, opts...)
	logger.Info("starting board program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("board program terminated with error", "err", err)
		return fmt.Errorf("run board program: %w", err)
	}
	logger.Info("command flow complete", "command", "board")
	return nil
}

// runServe blocks serving HTTP until interrupted.
func runServe(ctx context.Context, env environment, stderr io.Writer) error {
	logger, err := newRuntimeLogger(stderr, env)
	if err != nil {
		return err
	}
	defer closeLogger(logger, stderr)

	svc, store, err := openService(env, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger, env.cfg.Database.Path)

	adapter := common.NewAppServiceAdapter(svc)
	deps := server.Dependencies{Board: adapter, Tasks: adapter}
	if env.cfg.Server.ReadOnly {
		deps.Tasks = nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving board", "bind", env.cfg.Server.HTTPBind, "api", env.cfg.Server.APIEndpoint, "mcp", env.cfg.Server.MCPEndpoint, "read_only", env.cfg.Server.ReadOnly)
	if err := server.Run(ctx, toServerConfig(env), deps); err != nil {
		logger.Error("server terminated with error", "err", err)
		return fmt.Errorf("run server: %w", err)
	}
	logger.Info("command flow complete", "command", "serve")
	return nil
}

// runExport writes the snapshot to outPath, or stdout for "-".
func runExport(ctx context.Context, svc *app.Service, outPath string, stdout io.Writer) error {
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" || strings.TrimSpace(outPath) == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport validates the snapshot file and replaces the board with it.
func runImport(ctx context.Context, svc *app.Service, inPath string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// openService opens the sqlite store and builds the application service.
func openService(env environment, logger *logging.Runtime) (*app.Service, *sqlite.Store, error) {
	logger.Info("opening sqlite store", "db_path", env.cfg.Database.Path)
	store, err := sqlite.Open(env.cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", env.cfg.Database.Path, "err", err)
		return nil, nil, fmt.Errorf("open sqlite store: %w", err)
	}
	logger.Info("sqlite store ready", "db_path", env.cfg.Database.Path, "migrations", "ensured")
	return app.NewService(store, nil, nil), store, nil
}

// newRuntimeLogger configures the shared runtime logger from the loaded
// config, defaulting the file sink into the platform data dir.
func newRuntimeLogger(stderr io.Writer, env environment) (*logging.Runtime, error) {
	logger, err := logging.NewRuntime(stderr, env.appName, filepath.Join(env.paths.DataDir, "log"), logging.Config{
		Level: env.cfg.Logging.Level,
		File: logging.FileConfig{
			Enabled:    env.cfg.Logging.File.Enabled,
			Dir:        env.cfg.Logging.File.Dir,
			MaxSizeMB:  env.cfg.Logging.File.MaxSizeMB,
			MaxBackups: env.cfg.Logging.File.MaxBackups,
			MaxAgeDays: env.cfg.Logging.File.MaxAgeDays,
			Compress:   env.cfg.Logging.File.Compress,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	return logger, nil
}

// closeLogger closes the file sink, reporting failure only when the console
// sink is active so TUI shutdown stays quiet.
func closeLogger(logger *logging.Runtime, stderr io.Writer) {
	if err := logger.Close(); err != nil && logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// closeStore closes the sqlite store, logging rather than failing the command.
func closeStore(store *sqlite.Store, logger *logging.Runtime, dbPath string) {
	if err := store.Close(); err != nil {
		logger.Warn("sqlite close failed", "db_path", dbPath, "err", err)
	}
}

// toRuntimeConfig maps persisted config values into board runtime options.
func toRuntimeConfig(cfg config.Config) tui.RuntimeConfig {
	return tui.RuntimeConfig{
		DivergenceLimit: cfg.Board.DivergenceLimit,
		RefreshInterval: time.Duration(cfg.Refresh.IntervalSeconds) * time.Second,
		WatchEnabled:    cfg.Refresh.Watch,
		Keys: tui.KeyOverrides{
			MultiSelect: cfg.Keys.MultiSelect,
			SelectAll:   cfg.Keys.SelectAll,
			PlaceMenu:   cfg.Keys.PlaceMenu,
			MoveMode:    cfg.Keys.MoveMode,
			Jump:        cfg.Keys.Jump,
			Yank:        cfg.Keys.Yank,
		},
		TaskFields: tui.TaskFieldConfig{
			ShowPriority: cfg.Board.ShowPriority,
			ShowDueDate:  cfg.Board.ShowDueDate,
		},
		Search: tui.SearchFilterConfig{
			Statuses:   parseStatusFilters(cfg.Search.Statuses),
			Priorities: parsePriorityFilters(cfg.Search.Priorities),
		},
	}
}

// parseStatusFilters keeps the valid entries of a configured status list.
func parseStatusFilters(raw []string) []domain.Status {
	var out []domain.Status
	for _, entry := range raw {
		status, err := domain.ParseStatus(entry)
		if err != nil {
			continue
		}
		out = append(out, status)
	}
	return out
}

// parsePriorityFilters keeps the valid entries of a configured priority list.
func parsePriorityFilters(raw []string) []domain.Priority {
	var out []domain.Priority
	for _, entry := range raw {
		priority, err := domain.ParsePriority(entry)
		if err != nil {
			continue
		}
		out = append(out, priority)
	}
	return out
}

// toServerConfig maps persisted config values into serve-mode options.
func toServerConfig(env environment) server.Config {
	return server.Config{
		HTTPBind:      env.cfg.Server.HTTPBind,
		APIEndpoint:   env.cfg.Server.APIEndpoint,
		MCPEndpoint:   env.cfg.Server.MCPEndpoint,
		ServerName:    env.appName,
		ServerVersion: version,
	}
}

// parseBoolEnv parses an optional boolean environment variable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
