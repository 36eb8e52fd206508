package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsSymlink checks if a given path is a symbolic link.
// This function uses lstat to examine the file without following symlinks.
func IsSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat path: %w", err)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// ResolveSymlink resolves every link in path and returns the final location.
//
// Usage example:
//
//	target, err := fileops.ResolveSymlink("/templates/shared")
//	if err != nil {
//	    return fmt.Errorf("failed to resolve symlink: %w", err)
//	}
func ResolveSymlink(linkPath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlink: %w", err)
	}
	return resolved, nil
}

// canonical returns the absolute, link-free form of path.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	return ResolveSymlink(abs)
}

// IsWithin reports whether target is base or a descendant of base, comparing
// cleaned paths lexically. Neither path is touched on disk.
func IsWithin(base, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// ContainedIn follows links on both path and baseDir and reports whether the
// entry at path ends up inside baseDir. Both must exist.
//
// Usage example:
//
//	ok, err := fileops.ContainedIn("/srv/templates/shared/index.md", "/srv/templates")
//	if err != nil || !ok {
//	    return fmt.Errorf("template escapes its root")
//	}
func ContainedIn(path, baseDir string) (bool, error) {
	resolvedBase, err := canonical(baseDir)
	if err != nil {
		return false, fmt.Errorf("base directory: %w", err)
	}
	resolvedPath, err := canonical(path)
	if err != nil {
		return false, fmt.Errorf("path: %w", err)
	}
	return IsWithin(resolvedBase, resolvedPath), nil
}
