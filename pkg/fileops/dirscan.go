package fileops

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// ScanOptions configures ScanFiles.
type ScanOptions struct {
	// MaxDepth limits recursion depth. Zero means the default of 20.
	MaxDepth int

	// IncludeHidden includes entries whose name starts with '.'
	IncludeHidden bool

	// SkipPatterns are directory names skipped during the walk (exact match)
	SkipPatterns []string

	// FileFilter decides which files are reported. Nil reports every file.
	FileFilter func(filename string) bool
}

// FileInfo describes a file discovered by ScanFiles.
type FileInfo struct {
	// Name is the base filename
	Name string

	// Path is the forward-slash path relative to the scan root
	Path string

	Size    int64
	ModTime time.Time
}

// DefaultScanOptions returns options suited to a templates directory.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:     20,
		SkipPatterns: []string{".git", "node_modules", "vendor"},
	}
}

type scanner struct {
	root     *os.Root
	rootPath string
	opts     ScanOptions
	visited  map[string]bool
	results  []FileInfo
}

// ScanFiles walks scanPath through an os.Root and returns every file accepted
// by opts, sorted by Path. Unreadable directories are skipped. Symlinked
// directories are followed only when they resolve inside scanPath.
func ScanFiles(scanPath string, opts ScanOptions) ([]FileInfo, error) {
	if strings.TrimSpace(scanPath) == "" {
		return nil, fmt.Errorf("scan path cannot be empty")
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 20
	}

	absPath, err := filepath.Abs(ExpandPath(scanPath))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve scan path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure scan root: %w", err)
	}
	defer root.Close()

	s := &scanner{
		root:     root,
		rootPath: absPath,
		opts:     opts,
		visited:  make(map[string]bool),
	}
	if err := s.walk(".", 1); err != nil {
		return nil, fmt.Errorf("directory scan failed: %w", err)
	}

	sort.Slice(s.results, func(i, j int) bool { return s.results[i].Path < s.results[j].Path })
	return s.results, nil
}

func (s *scanner) walk(relativePath string, depth int) error {
	if depth > s.opts.MaxDepth {
		return nil
	}

	// Loop detection keys on the resolved location, not the link name
	key := relativePath
	if resolved, err := filepath.EvalSymlinks(filepath.Join(s.rootPath, relativePath)); err == nil {
		key = resolved
	}
	if s.visited[key] {
		return nil
	}
	s.visited[key] = true

	dir, err := s.root.Open(relativePath)
	if err != nil {
		return nil
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		entryPath := path.Join(filepath.ToSlash(relativePath), name)
		fullPath := filepath.Join(s.rootPath, filepath.FromSlash(entryPath))

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			ok, err := ContainedIn(fullPath, s.rootPath)
			if err != nil || !ok {
				continue
			}
			st, err := os.Stat(fullPath)
			if err != nil {
				continue
			}
			isDir = st.IsDir()
		}

		if isDir {
			if slices.Contains(s.opts.SkipPatterns, name) {
				continue
			}
			if err := s.walk(entryPath, depth+1); err != nil {
				return err
			}
			continue
		}

		if s.opts.FileFilter != nil && !s.opts.FileFilter(name) {
			continue
		}
		st, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		s.results = append(s.results, FileInfo{
			Name:    name,
			Path:    entryPath,
			Size:    st.Size(),
			ModTime: st.ModTime(),
		})
	}

	return nil
}
