package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorageWatcherSignalsOnDatabaseWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mbb.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := NewStorageWatcher(dbPath, 10, 10)
	if err != nil {
		t.Fatalf("NewStorageWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(dbPath, []byte("changed"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-w.Events():
	case <-time.After(3 * time.Second):
		t.Fatal("expected a refetch signal after database write")
	}
}

func TestStorageWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mbb.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := NewStorageWatcher(dbPath, 10, 10)
	if err != nil {
		t.Fatalf("NewStorageWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-w.Events():
		t.Fatal("expected no signal for unrelated file")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestStorageWatcherMatchesSidecars(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mbb.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := NewStorageWatcher(dbPath, 10, 10)
	if err != nil {
		t.Fatalf("NewStorageWatcher() error = %v", err)
	}
	defer w.Close()

	for _, name := range []string{"mbb.db", "mbb.db-wal", "mbb.db-shm", "mbb.db-journal"} {
		if !w.matchesTarget(filepath.Join(dir, name)) {
			t.Errorf("expected %s to match watch target", name)
		}
	}
	if w.matchesTarget(filepath.Join(dir, "other.db")) {
		t.Error("expected other.db not to match")
	}
}

func TestStorageWatcherCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mbb.db")

	w, err := NewStorageWatcher(dbPath, 0, 0)
	if err != nil {
		t.Fatalf("NewStorageWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
