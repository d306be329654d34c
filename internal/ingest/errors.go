package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPages is returned for documents that open but contain no pages.
	ErrNoPages = errors.New("document has no pages")
	// ErrNotDirectory is returned when the document root is a regular file.
	ErrNotDirectory = errors.New("not a directory")
)

// Error records the operation and file that failed during ingestion.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ingest %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ingest %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}
