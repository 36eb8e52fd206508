package fileops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ReadKind classifies why a read failed.
type ReadKind int

const (
	// ReadOther covers I/O failures that are not classified below
	ReadOther ReadKind = iota
	// ReadNotFound means the file does not exist
	ReadNotFound
	// ReadPermissionDenied means the process may not open the file
	ReadPermissionDenied
	// ReadTooLarge means the file exceeds the configured size limit
	ReadTooLarge
	// ReadIsDirectory means the path names a directory
	ReadIsDirectory
)

// String returns a human-readable description of the read kind
func (k ReadKind) String() string {
	switch k {
	case ReadNotFound:
		return "not found"
	case ReadPermissionDenied:
		return "permission denied"
	case ReadTooLarge:
		return "too large"
	case ReadIsDirectory:
		return "is a directory"
	default:
		return "other"
	}
}

// ReadError is the only error type returned by ReadText.
type ReadError struct {
	Kind ReadKind
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ReadText reads the whole file at path as text. maxSize <= 0 disables the
// size limit.
func ReadText(path string, maxSize int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", classify(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", classify(path, err)
	}
	if info.IsDir() {
		return "", &ReadError{Kind: ReadIsDirectory, Path: path, Err: errors.New("path is a directory, not a file")}
	}
	if maxSize > 0 && info.Size() > maxSize {
		return "", &ReadError{
			Kind: ReadTooLarge,
			Path: path,
			Err:  fmt.Errorf("file size %d bytes exceeds limit %d bytes", info.Size(), maxSize),
		}
	}

	var r io.Reader = f
	if maxSize > 0 {
		// The file may grow between Stat and Read
		r = io.LimitReader(f, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", classify(path, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", &ReadError{
			Kind: ReadTooLarge,
			Path: path,
			Err:  fmt.Errorf("file exceeds limit %d bytes", maxSize),
		}
	}

	return string(data), nil
}

func classify(path string, err error) *ReadError {
	kind := ReadOther
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ReadNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ReadPermissionDenied
	}
	return &ReadError{Kind: kind, Path: path, Err: err}
}

// KindOf returns the ReadKind carried by err, and false when err is not a
// *ReadError.
func KindOf(err error) (ReadKind, bool) {
	var rerr *ReadError
	if errors.As(err, &rerr) {
		return rerr.Kind, true
	}
	return ReadOther, false
}
