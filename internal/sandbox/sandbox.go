// Package sandbox confines caller-supplied relative paths to a configured
// root directory.
//
// Validation is two-staged. The string is checked before any filesystem call
// (separators normalized, absolute and drive-letter forms rejected, ".."
// segments rejected) and the joined result is then re-verified to still be
// inside the root. For entries that already exist, IsValidPath additionally
// follows real links on disk.
package sandbox

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"taskprompt/pkg/fileops"
)

// drive-letter forms such as C:, C:\ and C:/
var driveLetterPattern = regexp.MustCompile(`^[A-Za-z]:`)

// SanitizePath validates requested against root and returns the absolute path
// of root joined with the normalized input. root must be absolute.
//
// Both '/' and '\' are path delimiters regardless of host. The input is
// rejected when it is empty, absolute, drive-lettered, contains a ".."
// segment, or would not land strictly below root.
func SanitizePath(requested, root string) (string, error) {
	if !filepath.IsAbs(root) {
		return "", fmt.Errorf("allowed root must be an absolute path")
	}
	cleanRoot := filepath.Clean(root)

	if strings.TrimSpace(requested) == "" {
		return "", deny(requested, ReasonEmpty)
	}
	if strings.ContainsRune(requested, 0) {
		return "", deny(requested, ReasonInvalidCharacter)
	}

	normalized := strings.ReplaceAll(requested, `\`, "/")

	if strings.HasPrefix(normalized, "/") || driveLetterPattern.MatchString(normalized) || filepath.IsAbs(requested) {
		return "", deny(requested, ReasonAbsolute)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if isParentSegment(segment) {
			return "", deny(requested, ReasonTraversal)
		}
	}

	relative := path.Clean(normalized)
	if relative == "." {
		return "", deny(requested, ReasonRootItself)
	}

	joined := filepath.Join(cleanRoot, filepath.FromSlash(relative))

	// Re-verify after resolution
	if joined == cleanRoot {
		return "", deny(requested, ReasonRootItself)
	}
	if !fileops.IsWithin(cleanRoot, joined) {
		return "", deny(requested, ReasonOutsideRoot)
	}

	return joined, nil
}

// isParentSegment matches "..", and dot-only variants with trailing spaces
// that some filesystems collapse into "..".
func isParentSegment(segment string) bool {
	trimmed := strings.TrimRight(segment, " ")
	if len(trimmed) < 2 {
		return false
	}
	return strings.Trim(trimmed, ".") == ""
}

// IsValidPath reports whether the existing entry at p resolves, following
// links on disk, to a location under root. Any resolution or access error
// yields false.
func IsValidPath(p, root string) bool {
	ok, err := fileops.ContainedIn(p, root)
	return err == nil && ok
}

// Resolver binds SanitizePath to one root.
type Resolver struct {
	root       string
	extensions []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExtensions limits ResolveTemplatePath to files with one of exts.
// Matching is case-insensitive; a leading dot is optional.
func WithExtensions(exts ...string) Option {
	return func(r *Resolver) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			r.extensions = append(r.extensions, ext)
		}
	}
}

// New creates a Resolver for root. Relative roots are made absolute against
// the working directory; "~/" is expanded.
func New(root string, opts ...Option) (*Resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("allowed root cannot be empty")
	}
	abs, err := filepath.Abs(fileops.ExpandPath(root))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve allowed root: %w", err)
	}

	r := &Resolver{root: filepath.Clean(abs)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the absolute allowed root.
func (r *Resolver) Root() string {
	return r.root
}

// Extensions returns the accepted template extensions, or nil when any
// extension is accepted.
func (r *Resolver) Extensions() []string {
	return slices.Clone(r.extensions)
}

// Resolve is SanitizePath bound to the resolver root.
func (r *Resolver) Resolve(requested string) (string, error) {
	return SanitizePath(requested, r.root)
}

// GetDataPath resolves the name of a data-store file under the root.
func (r *Resolver) GetDataPath(name string) (string, error) {
	return r.Resolve(name)
}

// ResolveTemplatePath resolves a logical template path. On top of Resolve it
// enforces the extension allow-list, and when the file already exists it must
// not link outside the root.
func (r *Resolver) ResolveTemplatePath(logicalPath string) (string, error) {
	resolved, err := r.Resolve(logicalPath)
	if err != nil {
		return "", err
	}

	if len(r.extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(resolved))
		if !slices.Contains(r.extensions, ext) {
			return "", deny(logicalPath, ReasonExtension)
		}
	}

	if _, err := os.Lstat(resolved); err == nil {
		if !IsValidPath(resolved, r.root) {
			return "", deny(logicalPath, ReasonSymlinkEscape)
		}
	}

	return resolved, nil
}
