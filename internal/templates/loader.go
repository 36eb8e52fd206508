// Package templates loads markdown prompt templates through a path sandbox and
// keeps them in a read-through cache.
//
// A Loader is created once by the hosting process and shared by every
// consumer. Concurrent cold loads of the same template are coalesced so the
// file is read once and every caller sees that read's result.
package templates

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"taskprompt/internal/logging"
	"taskprompt/internal/sandbox"
	"taskprompt/pkg/fileops"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxFileSize caps a single template at 1 MiB.
const DefaultMaxFileSize int64 = 1 << 20

// PathResolver maps a logical template path to a sandboxed absolute path.
// *sandbox.Resolver implements it.
type PathResolver interface {
	ResolveTemplatePath(logicalPath string) (string, error)
	Root() string
}

// ReadFunc reads a resolved template file. It must report failures as
// *fileops.ReadError so they can be classified.
type ReadFunc func(path string, maxSize int64) (string, error)

// Loader is a read-through template cache.
type Loader struct {
	resolver    PathResolver
	logger      *logging.AppLogger
	read        ReadFunc
	maxFileSize int64
	preloadJobs int

	mu       sync.RWMutex
	cache    map[string]string
	inflight singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMaxFileSize sets the largest template accepted, in bytes. n <= 0
// disables the limit.
func WithMaxFileSize(n int64) LoaderOption {
	return func(l *Loader) {
		l.maxFileSize = n
	}
}

// WithReadFunc replaces the file reader.
func WithReadFunc(fn ReadFunc) LoaderOption {
	return func(l *Loader) {
		l.read = fn
	}
}

// WithPreloadConcurrency bounds how many templates Preload reads at once.
func WithPreloadConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		l.preloadJobs = n
	}
}

// NewLoader creates an empty Loader.
func NewLoader(resolver PathResolver, logger *logging.AppLogger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = logging.GetDefault()
	}
	l := &Loader{
		resolver:    resolver,
		logger:      logger,
		read:        fileops.ReadText,
		maxFileSize: DefaultMaxFileSize,
		preloadJobs: 8,
		cache:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the text of the template at logicalPath, reading it on the
// first request. Path validation failures are *sandbox.AccessDeniedError and
// happen before any read. A missing file is *NotFoundError; any other read
// failure is *ReadError.
//
// If ctx ends while waiting, Load returns ctx.Err(). The underlying read is
// not interrupted and still populates the cache.
func (l *Loader) Load(ctx context.Context, logicalPath string) (string, error) {
	if text, ok := l.lookup(logicalPath); ok {
		l.logger.Debug("Template cache hit", "path", logicalPath)
		return text, nil
	}
	l.logger.Debug("Template cache miss", "path", logicalPath)

	ch := l.inflight.DoChan(logicalPath, func() (interface{}, error) {
		// A flight for this key may have completed since the lookup above
		if text, ok := l.lookup(logicalPath); ok {
			return text, nil
		}
		return l.readThrough(logicalPath)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			l.logger.Debug("Joined in-flight template load", "path", logicalPath)
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readThrough resolves, reads and stores one template. It runs at most once
// per key at a time.
func (l *Loader) readThrough(logicalPath string) (string, error) {
	resolved, err := l.resolver.ResolveTemplatePath(logicalPath)
	if err != nil {
		requested, _ := sandbox.RequestedPath(err)
		l.logger.Error("Template path rejected", "requested", requested, "error", err)
		return "", err
	}

	start := time.Now()
	text, err := l.read(resolved, l.maxFileSize)
	if err != nil {
		mapped := mapReadError(logicalPath, l.dirHint(), err)
		l.logger.Error("Failed to load template", "path", logicalPath, "error", mapped, "cause", err)
		return "", mapped
	}

	l.mu.Lock()
	l.cache[logicalPath] = text
	l.mu.Unlock()

	l.logger.Info("Template loaded", "path", logicalPath, "bytes", len(text))
	l.logger.LogPerformance("template load", start)
	return text, nil
}

func (l *Loader) lookup(logicalPath string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	text, ok := l.cache[logicalPath]
	return text, ok
}

// dirHint is the templates directory name shown in not-found messages.
func (l *Loader) dirHint() string {
	return filepath.Base(l.resolver.Root())
}

// PreloadOutcome is the result of preloading one template.
type PreloadOutcome struct {
	Path string
	Err  error
}

// PreloadReport summarizes a Preload call. Loaded+Failed equals the number of
// requested paths.
type PreloadReport struct {
	Loaded   int
	Failed   int
	Outcomes []PreloadOutcome
}

// Failures returns the outcomes that did not load.
func (r PreloadReport) Failures() []PreloadOutcome {
	var failed []PreloadOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Preload loads every path and waits for all of them, whatever their
// outcome. It never fails as a whole; individual failures are reported in
// the returned PreloadReport.
func (l *Loader) Preload(ctx context.Context, paths []string) PreloadReport {
	start := time.Now()

	tasks := make([]func(context.Context) (string, error), len(paths))
	for i, p := range paths {
		tasks[i] = func(ctx context.Context) (string, error) {
			return l.Load(ctx, p)
		}
	}

	outcomes := Settle(ctx, l.preloadJobs, tasks)

	report := PreloadReport{Outcomes: make([]PreloadOutcome, len(paths))}
	for i, o := range outcomes {
		report.Outcomes[i] = PreloadOutcome{Path: paths[i], Err: o.Err}
		if o.Err != nil {
			report.Failed++
			l.logger.Warn("Template preload failed", "path", paths[i], "error", o.Err)
			continue
		}
		report.Loaded++
	}

	l.logger.Info("Template preload completed",
		"requested", len(paths),
		"loaded", report.Loaded,
		"failed", report.Failed,
		"cached", l.CacheSize())
	l.logger.LogPerformance("template preload", start)

	return report
}

// ClearCache drops every cached template. It is meant for tests and
// development hot-reload; it must not race in-flight loads in production.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	dropped := len(l.cache)
	l.cache = make(map[string]string)
	l.mu.Unlock()

	l.logger.Debug("Template cache cleared", "dropped", dropped)
}

// CacheSize returns the number of cached templates.
func (l *Loader) CacheSize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}
