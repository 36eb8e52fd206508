package templates

import (
	"errors"
	"fmt"

	"taskprompt/pkg/fileops"
)

// Sentinel errors for template failures
var (
	// ErrTemplateNotFound indicates the template file does not exist
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateRead indicates the template exists but could not be read
	ErrTemplateRead = errors.New("template read failed")
)

// NotFoundError reports a missing template. Dir names the templates
// directory (not its absolute path) as a remediation hint.
type NotFoundError struct {
	Path string
	Dir  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Template not found: %s (check that it exists in the %q templates directory)", e.Path, e.Dir)
}

// Is implements error comparison for errors.Is
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// ReadError reports any other read failure. The message names only the
// logical path and the failure kind; the wrapped cause carries the
// filesystem detail.
type ReadError struct {
	Path string
	Kind fileops.ReadKind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read template %s: %s", e.Path, e.Kind)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for errors.Is
func (e *ReadError) Is(target error) bool {
	return target == ErrTemplateRead
}

// mapReadError turns a classified read failure into the loader's error
// taxonomy.
func mapReadError(logicalPath, dirHint string, err error) error {
	kind, ok := fileops.KindOf(err)
	if !ok {
		return &ReadError{Path: logicalPath, Kind: fileops.ReadOther, Err: err}
	}

	switch kind {
	case fileops.ReadNotFound:
		return &NotFoundError{Path: logicalPath, Dir: dirHint}
	default:
		return &ReadError{Path: logicalPath, Kind: kind, Err: err}
	}
}
