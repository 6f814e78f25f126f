package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent is returned by PageStore.Save when the Markdown body
	// is empty or whitespace only. Nothing is written.
	ErrEmptyContent = errors.New("empty content: save skipped")

	// ErrFilenameCollision marks a URL whose output file name is already
	// claimed by another URL of the same run.
	ErrFilenameCollision = errors.New("output filename already claimed by another URL")

	// ErrNoEntries is returned by IndexBuilder.Build when there is nothing to index.
	ErrNoEntries = errors.New("no index entries")
)

// SaveError reports a failed write of an output file.
type SaveError struct {
	// Path is the destination file path.
	Path string

	// Err is the underlying I/O error.
	Err error
}

// Error implements error.
func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *SaveError) Unwrap() error {
	return e.Err
}
