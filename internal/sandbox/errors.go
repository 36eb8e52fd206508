package sandbox

import (
	"errors"
)

// ErrAccessDenied is matched by every denial returned from this package.
var ErrAccessDenied = errors.New("access denied")

// Denial reasons. They are safe to show to callers: none of them contain a path.
const (
	ReasonEmpty            = "empty path"
	ReasonAbsolute         = "absolute paths are not allowed"
	ReasonTraversal        = "path traversal not allowed"
	ReasonOutsideRoot      = "path resolves outside the allowed directory"
	ReasonRootItself       = "path resolves to the allowed directory itself"
	ReasonExtension        = "file extension not allowed"
	ReasonInvalidCharacter = "path contains invalid characters"
	ReasonSymlinkEscape    = "path links outside the allowed directory"
)

// AccessDeniedError reports a rejected path. Requested holds the raw input for
// logging; Error() deliberately leaves it out.
type AccessDeniedError struct {
	Requested string
	Reason    string
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

// Is implements error comparison for errors.Is
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

func deny(requested, reason string) *AccessDeniedError {
	return &AccessDeniedError{Requested: requested, Reason: reason}
}

// RequestedPath extracts the offending input from a denial, for log records.
func RequestedPath(err error) (string, bool) {
	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		return denied.Requested, true
	}
	return "", false
}
