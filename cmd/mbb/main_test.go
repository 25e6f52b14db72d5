package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/adapters/storage/sqlite"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/app"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/config"
	"github.com/ChrisCotton/kanban-mbb-app-sub000/internal/domain"
)

func clearRuntimeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MBB_CONFIG", "")
	t.Setenv("MBB_DB_PATH", "")
	t.Setenv("MBB_DEV_MODE", "")
	t.Setenv("MBB_APP_NAME", "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
}

func newMemoryService(t *testing.T) *app.Service {
	t.Helper()
	store, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return app.NewService(store, nil, nil)
}

func TestResolveEnvironmentFlagPrecedence(t *testing.T) {
	clearRuntimeEnv(t)
	dir := t.TempDir()
	t.Setenv("MBB_DB_PATH", filepath.Join(dir, "env.db"))
	t.Setenv("MBB_CONFIG", filepath.Join(dir, "env-config.toml"))

	flagDB := filepath.Join(dir, "flag.db")
	flagConfig := filepath.Join(dir, "flag-config.toml")
	env, err := resolveEnvironment(rootFlags{
		configPath: flagConfig,
		dbPath:     flagDB,
		appName:    "mbb",
	})
	if err != nil {
		t.Fatalf("resolveEnvironment() error = %v", err)
	}
	if env.configPath != flagConfig {
		t.Errorf("configPath = %q, want flag value %q", env.configPath, flagConfig)
	}
	if env.cfg.Database.Path != flagDB {
		t.Errorf("db path = %q, want flag value %q", env.cfg.Database.Path, flagDB)
	}
	if !env.dbOverridden {
		t.Error("expected dbOverridden with --db set")
	}
}

func TestResolveEnvironmentEnvFallback(t *testing.T) {
	clearRuntimeEnv(t)
	dir := t.TempDir()
	envDB := filepath.Join(dir, "env.db")
	envConfig := filepath.Join(dir, "env-config.toml")
	t.Setenv("MBB_DB_PATH", envDB)
	t.Setenv("MBB_CONFIG", envConfig)

	env, err := resolveEnvironment(rootFlags{appName: "mbb"})
	if err != nil {
		t.Fatalf("resolveEnvironment() error = %v", err)
	}
	if env.configPath != envConfig {
		t.Errorf("configPath = %q, want env value %q", env.configPath, envConfig)
	}
	if env.cfg.Database.Path != envDB {
		t.Errorf("db path = %q, want env value %q", env.cfg.Database.Path, envDB)
	}
}

func TestResolveEnvironmentLoadsConfigFile(t *testing.T) {
	clearRuntimeEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[board]",
		"divergence_limit = 3",
		"",
		"[keys]",
		`multi_select = "s"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	env, err := resolveEnvironment(rootFlags{configPath: configPath, appName: "mbb"})
	if err != nil {
		t.Fatalf("resolveEnvironment() error = %v", err)
	}
	if env.cfg.Board.DivergenceLimit != 3 {
		t.Errorf("DivergenceLimit = %d, want 3", env.cfg.Board.DivergenceLimit)
	}
	if env.cfg.Keys.MultiSelect != "s" {
		t.Errorf("Keys.MultiSelect = %q, want %q", env.cfg.Keys.MultiSelect, "s")
	}
}

func TestToRuntimeConfigMapping(t *testing.T) {
	cfg := config.Default("/tmp/x.db")
	cfg.Board.DivergenceLimit = 4
	cfg.Board.ShowDueDate = false
	cfg.Refresh.IntervalSeconds = 9
	cfg.Refresh.Watch = false
	cfg.Keys.Jump = "'"
	cfg.Search.Statuses = []string{"todo", "bogus", "doing"}
	cfg.Search.Priorities = []string{"high"}

	rc := toRuntimeConfig(cfg)
	if rc.DivergenceLimit != 4 {
		t.Errorf("DivergenceLimit = %d, want 4", rc.DivergenceLimit)
	}
	if rc.RefreshInterval.Seconds() != 9 {
		t.Errorf("RefreshInterval = %v, want 9s", rc.RefreshInterval)
	}
	if rc.WatchEnabled {
		t.Error("expected watch disabled")
	}
	if rc.Keys.Jump != "'" {
		t.Errorf("Keys.Jump = %q, want %q", rc.Keys.Jump, "'")
	}
	if !rc.TaskFields.ShowPriority || rc.TaskFields.ShowDueDate {
		t.Errorf("TaskFields = %+v, want priority only", rc.TaskFields)
	}
	// Invalid filter entries are dropped, valid ones kept in order.
	if len(rc.Search.Statuses) != 2 || rc.Search.Statuses[0] != domain.StatusTodo || rc.Search.Statuses[1] != domain.StatusDoing {
		t.Errorf("Search.Statuses = %v, want [todo doing]", rc.Search.Statuses)
	}
	if len(rc.Search.Priorities) != 1 || rc.Search.Priorities[0] != domain.PriorityHigh {
		t.Errorf("Search.Priorities = %v, want [high]", rc.Search.Priorities)
	}
}

func TestResolveEnvironmentCreatesConfigDir(t *testing.T) {
	clearRuntimeEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nested", "deeper", "config.toml")

	if _, err := resolveEnvironment(rootFlags{configPath: configPath, appName: "mbb"}); err != nil {
		t.Fatalf("resolveEnvironment() error = %v", err)
	}
	info, err := os.Stat(filepath.Dir(configPath))
	if err != nil {
		t.Fatalf("expected config dir created, stat error = %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %s to be a directory", filepath.Dir(configPath))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newMemoryService(t)
	if _, err := src.CreateTask(ctx, app.CreateTaskInput{Status: domain.StatusTodo, Title: "Alpha"}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := src.CreateTask(ctx, app.CreateTaskInput{Status: domain.StatusDoing, Title: "Beta", Priority: domain.PriorityHigh}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	if err := runExport(ctx, src, outPath, nil); err != nil {
		t.Fatalf("runExport() error = %v", err)
	}

	dst := newMemoryService(t)
	if err := runImport(ctx, dst, outPath); err != nil {
		t.Fatalf("runImport() error = %v", err)
	}

	b, err := dst.Board(ctx)
	if err != nil {
		t.Fatalf("Board() error = %v", err)
	}
	if b.Total() != 2 {
		t.Fatalf("imported board Total() = %d, want 2", b.Total())
	}
	todo := b.Tasks(domain.StatusTodo)
	if len(todo) != 1 || todo[0].Title != "Alpha" {
		t.Errorf("todo column = %+v, want one task titled Alpha", todo)
	}
	doing := b.Tasks(domain.StatusDoing)
	if len(doing) != 1 || doing[0].Priority != domain.PriorityHigh {
		t.Errorf("doing column = %+v, want one high-priority task", doing)
	}
}

func TestExportWritesToStdout(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(t)
	if _, err := svc.CreateTask(ctx, app.CreateTaskInput{Title: "Only"}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	var out bytes.Buffer
	if err := runExport(ctx, svc, "-", &out); err != nil {
		t.Fatalf("runExport() error = %v", err)
	}
	if !strings.Contains(out.String(), app.SnapshotVersion) {
		t.Errorf("stdout export missing version marker, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Only") {
		t.Errorf("stdout export missing task title, got %q", out.String())
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(t)
	inPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(inPath, []byte(`{"version":"other.v9"}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := runImport(ctx, svc, inPath); err == nil {
		t.Fatal("expected version mismatch error")
	}
}

func TestRootCommandStructure(t *testing.T) {
	root := newRootCmd()
	if root.Use != "mbb" {
		t.Errorf("Use = %q, want mbb", root.Use)
	}
	want := map[string]bool{"serve": false, "export": false, "import": false, "paths": false}
	for _, sub := range root.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestPathsCommandOutput(t *testing.T) {
	clearRuntimeEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "boards.db")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"paths", "--app", "pathtest", "--db", dbPath, "--config", filepath.Join(dir, "config.toml")})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "app: pathtest") {
		t.Errorf("paths output missing app line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "db: "+dbPath) {
		t.Errorf("paths output missing db line, got %q", out.String())
	}
}

func TestImportRequiresInFlag(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"import"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected missing --in error")
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("MBB_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("MBB_TEST_BOOL"); !ok || !v {
		t.Errorf("parseBoolEnv(true) = %v, %v", v, ok)
	}
	t.Setenv("MBB_TEST_BOOL", "nonsense")
	if _, ok := parseBoolEnv("MBB_TEST_BOOL"); ok {
		t.Error("expected unparsable value to report not-ok")
	}
	t.Setenv("MBB_TEST_BOOL", "")
	if _, ok := parseBoolEnv("MBB_TEST_BOOL"); ok {
		t.Error("expected empty value to report not-ok")
	}
}
