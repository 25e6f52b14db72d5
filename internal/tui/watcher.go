package tui

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// watchDebounce coalesces the event bursts sqlite produces per transaction
// (wal write, checkpoint, rename) into one refetch signal.
const watchDebounce = 250 * time.Millisecond

// StorageWatcher watches the database file for external writes and emits
// one refetch signal per settled change. It watches the parent directory
// rather than the file itself so atomic replace-by-rename keeps working,
// and a rate limiter caps how often refetch signals fire under sustained
// external write load.
type StorageWatcher struct {
	watcher   *fsnotify.Watcher
	target    string
	events    chan struct{}
	limiter   *rate.Limiter
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewStorageWatcher builds a watcher for the given database path.
// eventsPerSecond and burst tune the refetch rate limiter.
func NewStorageWatcher(dbPath string, eventsPerSecond float64, burst int) (*StorageWatcher, error) {
	resolved, err := filepath.EvalSymlinks(dbPath)
	if err != nil {
		// The file may not exist yet on first run; fall back to the raw path.
		resolved = dbPath
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(resolved)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watch database directory: %w", err)
	}

	if eventsPerSecond <= 0 {
		eventsPerSecond = 2
	}
	if burst <= 0 {
		burst = 2
	}

	w := &StorageWatcher{
		watcher: fsWatcher,
		target:  resolved,
		events:  make(chan struct{}, 1),
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Events returns the refetch signal channel. The channel holds at most one
// pending signal; coalescing is fine because every signal triggers a full
// snapshot fetch.
func (w *StorageWatcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and releases the fsnotify handle.
func (w *StorageWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *StorageWatcher) run() {
	var debounce *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matchesTarget(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(watchDebounce)
			}
			debounceCh = debounce.C

		case <-debounceCh:
			debounceCh = nil
			if !w.limiter.Allow() {
				continue
			}
			select {
			case w.events <- struct{}{}:
			default:
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal; periodic refresh still covers
			// external changes.
		}
	}
}

// matchesTarget reports whether a directory event concerns the database
// file or its sqlite sidecars (-wal, -shm, -journal).
func (w *StorageWatcher) matchesTarget(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if abs == w.target {
		return true
	}
	base := filepath.Base(abs)
	targetBase := filepath.Base(w.target)
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if base == targetBase+suffix {
			return true
		}
	}
	return false
}
