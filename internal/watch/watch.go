// Package watch turns store activity by other processes into change
// notifications for the catalog service.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultCoalesce is how long a burst of file events is gathered into one
// notification.
const DefaultCoalesce = 100 * time.Millisecond

// Event says the store may have changed.
type Event struct {
	Source string // files, revision, notify
	Detail string
}

// FileOptions configures a file watcher.
type FileOptions struct {
	// Match limits events to paths it accepts. Nil accepts everything.
	Match    func(path string) bool
	Coalesce time.Duration
	Logger   *slog.Logger
}

// Files watches root and every directory below it, including directories
// created later, and emits coalesced events until ctx is done. The channel
// is closed when the watcher stops. Consumers that fall behind lose events,
// not correctness: any event triggers a full refresh.
func Files(ctx context.Context, root string, opts FileOptions) (<-chan Event, error) {
	if root == "" {
		return nil, errors.New("watch: root path is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("watch: ensure root: %w", err)
	}
	if opts.Coalesce <= 0 {
		opts.Coalesce = DefaultCoalesce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				logger.Warn("watcher close", "error", err)
			}
		})
	}

	dirs, err := collectDirs(root)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("watch: enumerate directories: %w", err)
	}
	watched := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("watch: add %s: %w", dir, err)
		}
		watched[dir] = struct{}{}
	}

	events := make(chan Event, 16)
	var sendMu sync.Mutex
	closed := false
	send := func(ev Event) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if closed {
			return
		}
		select {
		case events <- ev:
		default:
		}
	}

	go func() {
		throttle := newThrottle(opts.Coalesce)
		defer func() {
			sendMu.Lock()
			closed = true
			close(events)
			sendMu.Unlock()
		}()
		defer throttle.Stop()
		defer closeWatcher()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "error", err)
				throttle.Enqueue(Event{Source: "files", Detail: "watcher error"}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						dir := filepath.Clean(evt.Name)
						if _, found := watched[dir]; !found {
							if err := watcher.Add(dir); err != nil {
								logger.Warn("watch new directory", "dir", dir, "error", err)
							} else {
								watched[dir] = struct{}{}
							}
						}
						continue
					}
				}
				if evt.Op == fsnotify.Chmod {
					continue
				}
				if opts.Match != nil && !opts.Match(evt.Name) {
					continue
				}
				throttle.Enqueue(Event{Source: "files", Detail: evt.Name}, send)
			}
		}
	}()
	return events, nil
}

// SQLiteFiles matches a SQLite database file and its -wal/-journal
// companions.
func SQLiteFiles(dbPath string) func(string) bool {
	base := filepath.Base(dbPath)
	return func(path string) bool {
		return strings.HasPrefix(filepath.Base(path), base)
	}
}

// JSONFiles matches the per-node documents of a diskv store.
func JSONFiles(path string) bool {
	return strings.HasSuffix(path, ".json")
}

func collectDirs(base string) ([]string, error) {
	dirs := []string{filepath.Clean(base)}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && filepath.Clean(path) != dirs[0] {
			dirs = append(dirs, filepath.Clean(path))
		}
		return nil
	})
	return dirs, err
}
