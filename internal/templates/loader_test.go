package templates

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskprompt/internal/logging"
	"taskprompt/internal/sandbox"
	"taskprompt/pkg/fileops"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

// countingReader wraps fileops.ReadText and counts every call.
type countingReader struct {
	calls atomic.Int32
}

func (c *countingReader) read(path string, maxSize int64) (string, error) {
	c.calls.Add(1)
	return fileops.ReadText(path, maxSize)
}

func newTestLoader(t *testing.T, opts ...LoaderOption) (*Loader, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "prompts")
	require.NoError(t, os.MkdirAll(root, 0o755))

	resolver, err := sandbox.New(root)
	require.NoError(t, err)

	logger, _ := logging.NewTestLogger()
	return NewLoader(resolver, logger, opts...), root
}

func TestLoad_ReturnsContentAndCaches(t *testing.T) {
	loader, root := newTestLoader(t)
	writeTemplate(t, root, "tests/basic.md", "Hello {name}")

	text, err := loader.Load(context.Background(), "tests/basic.md")
	require.NoError(t, err)
	assert.Contains(t, text, "{name}")
	assert.Equal(t, 1, loader.CacheSize())
}

func TestLoad_CacheHitSkipsRead(t *testing.T) {
	counter := &countingReader{}
	loader, root := newTestLoader(t, WithReadFunc(counter.read))
	writeTemplate(t, root, "tests/basic.md", "Hello {name}")

	ctx := context.Background()
	first, err := loader.Load(ctx, "tests/basic.md")
	require.NoError(t, err)

	// Changing the file must not affect the cached copy
	writeTemplate(t, root, "tests/basic.md", "changed")

	second, err := loader.Load(ctx, "tests/basic.md")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), counter.calls.Load())
	assert.Equal(t, 1, loader.CacheSize())
}

func TestLoad_NotFound(t *testing.T) {
	loader, _ := newTestLoader(t)

	_, err := loader.Load(context.Background(), "nonexistent/template.md")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "Template not found")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
	assert.False(t, errors.Is(err, sandbox.ErrAccessDenied))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nonexistent/template.md", nf.Path)
	assert.Equal(t, "prompts", nf.Dir)
	assert.Equal(t, 0, loader.CacheSize())
}

func TestLoad_AccessDeniedBeforeRead(t *testing.T) {
	counter := &countingReader{}
	loader, root := newTestLoader(t, WithReadFunc(counter.read))

	// A real file just outside the root
	writeTemplate(t, filepath.Dir(root), "package.json", "{}")

	for _, p := range []string{
		"../../../package.json",
		"../package.json",
		"/etc/passwd",
		`..\..\package.json`,
		"C:\\Windows\\win.ini",
	} {
		t.Run(p, func(t *testing.T) {
			_, err := loader.Load(context.Background(), p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, sandbox.ErrAccessDenied))
			assert.NotContains(t, err.Error(), root)
		})
	}

	assert.Equal(t, int32(0), counter.calls.Load())
	assert.Equal(t, 0, loader.CacheSize())
}

func TestLoad_ReadErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		kind  fileops.ReadKind
		cause error
	}{
		{"permission denied", fileops.ReadPermissionDenied, fs.ErrPermission},
		{"too large", fileops.ReadTooLarge, errors.New("file size 10 bytes exceeds limit 5 bytes")},
		{"directory", fileops.ReadIsDirectory, errors.New("path is a directory, not a file")},
		{"other", fileops.ReadOther, errors.New("input/output error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing := func(path string, _ int64) (string, error) {
				return "", &fileops.ReadError{Kind: tt.kind, Path: path, Err: tt.cause}
			}
			loader, root := newTestLoader(t, WithReadFunc(failing))

			_, err := loader.Load(context.Background(), "broken.md")
			require.Error(t, err)

			assert.True(t, errors.Is(err, ErrTemplateRead))
			assert.False(t, errors.Is(err, ErrTemplateNotFound))
			assert.True(t, errors.Is(err, tt.cause))
			assert.NotContains(t, err.Error(), root)

			var re *ReadError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.kind, re.Kind)
			assert.Equal(t, "broken.md", re.Path)
			assert.Equal(t, 0, loader.CacheSize())
		})
	}
}

func TestLoad_UnclassifiedReadError(t *testing.T) {
	cause := errors.New("boom")
	loader, _ := newTestLoader(t, WithReadFunc(func(string, int64) (string, error) {
		return "", cause
	}))

	_, err := loader.Load(context.Background(), "x.md")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTemplateRead))
	assert.True(t, errors.Is(err, cause))
}

func TestLoad_MaxFileSize(t *testing.T) {
	loader, root := newTestLoader(t, WithMaxFileSize(4))
	writeTemplate(t, root, "big.md", "0123456789")

	_, err := loader.Load(context.Background(), "big.md")
	require.Error(t, err)

	var re *ReadError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, fileops.ReadTooLarge, re.Kind)
}

func TestLoad_ConcurrentMissesShareOneRead(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	blocking := func(path string, maxSize int64) (string, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return fileops.ReadText(path, maxSize)
	}

	loader, root := newTestLoader(t, WithReadFunc(blocking))
	writeTemplate(t, root, "analyzeTask/index.md", "Analyze {task}")

	const callers = 16
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = loader.Load(context.Background(), "analyzeTask/index.md")
		}()
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, loader.CacheSize())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "Analyze {task}", results[i])
	}
}

func TestLoad_ConcurrentFailureSharedByAllCallers(t *testing.T) {
	release := make(chan struct{})

	blocking := func(path string, maxSize int64) (string, error) {
		<-release
		return fileops.ReadText(path, maxSize)
	}

	loader, _ := newTestLoader(t, WithReadFunc(blocking))

	const callers = 8
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = loader.Load(context.Background(), "missing.md")
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrTemplateNotFound))
	}
	assert.Equal(t, 0, loader.CacheSize())
}

func TestLoad_DifferentKeysAreIndependent(t *testing.T) {
	release := make(chan struct{})

	slowFirst := func(path string, maxSize int64) (string, error) {
		if filepath.Base(path) == "slow.md" {
			<-release
		}
		return fileops.ReadText(path, maxSize)
	}

	loader, root := newTestLoader(t, WithReadFunc(slowFirst))
	writeTemplate(t, root, "slow.md", "slow")
	writeTemplate(t, root, "fast.md", "fast")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = loader.Load(context.Background(), "slow.md")
	}()

	text, err := loader.Load(context.Background(), "fast.md")
	require.NoError(t, err)
	assert.Equal(t, "fast", text)

	close(release)
	<-done
	assert.Equal(t, 2, loader.CacheSize())
}

func TestLoad_ContextCancelStopsWaitingOnly(t *testing.T) {
	release := make(chan struct{})
	blocking := func(path string, maxSize int64) (string, error) {
		<-release
		return fileops.ReadText(path, maxSize)
	}

	loader, root := newTestLoader(t, WithReadFunc(blocking))
	writeTemplate(t, root, "planTask/index.md", "Plan")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := loader.Load(ctx, "planTask/index.md")
		errCh <- err
	}()

	cancel()
	err := <-errCh
	assert.True(t, errors.Is(err, context.Canceled))

	close(release)
	require.Eventually(t, func() bool {
		return loader.CacheSize() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestClearCache(t *testing.T) {
	counter := &countingReader{}
	loader, root := newTestLoader(t, WithReadFunc(counter.read))
	writeTemplate(t, root, "a.md", "A")
	writeTemplate(t, root, "b.md", "B")

	ctx := context.Background()
	_, err := loader.Load(ctx, "a.md")
	require.NoError(t, err)
	_, err = loader.Load(ctx, "b.md")
	require.NoError(t, err)
	require.Equal(t, 2, loader.CacheSize())

	loader.ClearCache()
	assert.Equal(t, 0, loader.CacheSize())

	_, err = loader.Load(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, int32(3), counter.calls.Load())
	assert.Equal(t, 1, loader.CacheSize())
}

func TestPreload(t *testing.T) {
	loader, root := newTestLoader(t)
	writeTemplate(t, root, "analyzeTask/index.md", "analyze")
	writeTemplate(t, root, "planTask/index.md", "plan")

	paths := []string{
		"analyzeTask/index.md",
		"missing.md",
		"planTask/index.md",
		"../outside.md",
	}

	report := loader.Preload(context.Background(), paths)

	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, len(paths), report.Loaded+report.Failed)
	require.Len(t, report.Outcomes, len(paths))
	assert.Equal(t, 2, loader.CacheSize())

	for i, o := range report.Outcomes {
		assert.Equal(t, paths[i], o.Path)
	}
	assert.NoError(t, report.Outcomes[0].Err)
	assert.True(t, errors.Is(report.Outcomes[1].Err, ErrTemplateNotFound))
	assert.NoError(t, report.Outcomes[2].Err)
	assert.True(t, errors.Is(report.Outcomes[3].Err, sandbox.ErrAccessDenied))

	failures := report.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "missing.md", failures[0].Path)
	assert.Equal(t, "../outside.md", failures[1].Path)
}

func TestPreload_Empty(t *testing.T) {
	loader, _ := newTestLoader(t)

	report := loader.Preload(context.Background(), nil)
	assert.Equal(t, 0, report.Loaded)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Outcomes)
}

func TestPreload_DuplicatePathsReadOnce(t *testing.T) {
	counter := &countingReader{}
	loader, root := newTestLoader(t, WithReadFunc(counter.read), WithPreloadConcurrency(4))
	writeTemplate(t, root, "executeTask/index.md", "execute")

	report := loader.Preload(context.Background(), []string{
		"executeTask/index.md",
		"executeTask/index.md",
		"executeTask/index.md",
	})

	assert.Equal(t, 3, report.Loaded)
	assert.Equal(t, int32(1), counter.calls.Load())
	assert.Equal(t, 1, loader.CacheSize())
}

func TestPreload_LogsSummary(t *testing.T) {
	root := t.TempDir()
	resolver, err := sandbox.New(root)
	require.NoError(t, err)
	logger, buf := logging.NewTestLogger()
	loader := NewLoader(resolver, logger)
	writeTemplate(t, root, "ok.md", "ok")

	loader.Preload(context.Background(), []string{"ok.md", "gone.md"})

	output := buf.String()
	assert.Contains(t, output, "Template preload completed")
	assert.Contains(t, output, "Template preload failed")
	assert.Contains(t, output, "gone.md")
}

func BenchmarkLoad_CacheHit(b *testing.B) {
	root := b.TempDir()
	require.NoError(b, os.WriteFile(filepath.Join(root, "bench.md"), []byte("Hello {name}"), 0o644))
	resolver, err := sandbox.New(root)
	require.NoError(b, err)
	logger, _ := logging.NewTestLogger()
	loader := NewLoader(resolver, logger)

	ctx := context.Background()
	_, err = loader.Load(ctx, "bench.md")
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = loader.Load(ctx, "bench.md")
	}
}
