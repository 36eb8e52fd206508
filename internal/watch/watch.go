// Package watch clears cached templates when files under the templates
// directory change. It is meant for development; production servers run
// with a fixed template set.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"taskprompt/internal/logging"
	"taskprompt/pkg/fileops"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups editor save bursts into one change notification.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls onChange once per burst of filesystem events under root.
type Watcher struct {
	root     string
	onChange func()
	logger   *logging.AppLogger
	debounce time.Duration
	ready    chan struct{}
	started  atomic.Bool
}

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("watcher already started")

// New creates a Watcher. debounce <= 0 uses DefaultDebounce.
func New(root string, onChange func(), logger *logging.AppLogger, debounce time.Duration) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("change handler cannot be nil")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid watch root: %w", err)
	}
	if logger == nil {
		logger = logging.GetDefault()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     abs,
		onChange: onChange,
		logger:   logger.With("component", "watch"),
		debounce: debounce,
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once every directory under root is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches root recursively until ctx ends. A Watcher runs at most once;
// later calls return ErrAlreadyStarted.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	close(w.ready)
	w.logger.Info("Watching templates for changes", "root", w.root, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := 0

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				w.watchIfDir(fsw, event.Name)
			}
			w.logger.Debug("Template change", "path", event.Name, "op", event.Op.String())
			pending++
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)

		case <-timer.C:
			w.logger.Info("Templates changed, clearing cache", "events", pending)
			pending = 0
			w.onChange()
		}
	}
}

// relevant drops hidden files, editor backups and chmod-only events.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	return !strings.HasPrefix(name, ".") && !strings.HasSuffix(name, "~")
}

// watchIfDir starts watching a newly created directory. Linked directories
// are not followed.
func (w *Watcher) watchIfDir(fsw *fsnotify.Watcher, path string) {
	if link, err := fileops.IsSymlink(path); err != nil || link {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addRecursive(fsw, path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The directory may vanish between the event and the walk
			if errors.Is(err, fs.ErrNotExist) && path != w.root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
