package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLinksFound aborts a run whose entry page yields no documentation links.
	ErrNoLinksFound = errors.New("no documentation links found")

	// ErrOutputDir aborts a run whose output directory cannot be created.
	ErrOutputDir = errors.New("cannot create output directory")

	// ErrWorkerPanic marks a page whose processing panicked.
	ErrWorkerPanic = errors.New("page processing panicked")

	// ErrNoResult marks a task that produced no result.
	ErrNoResult = errors.New("page produced no result")

	// ErrUntitled marks a page that was saved but has no title to index it by.
	ErrUntitled = errors.New("page saved without title: not indexed")

	// ErrConfigNotValidated is returned by FromConfig for a configuration
	// that has not passed Validate.
	ErrConfigNotValidated = errors.New("configuration has not been validated")
)

// EntryFetchError aborts a run whose entry page cannot be fetched.
type EntryFetchError struct {
	// URL is the entry URL.
	URL string

	// Err is the fetch failure, usually a *crawler.FetchError.
	Err error
}

// Error implements error.
func (e *EntryFetchError) Error() string {
	return fmt.Sprintf("failed to fetch entry page %s: %v", e.URL, e.Err)
}

// Unwrap returns the fetch failure.
func (e *EntryFetchError) Unwrap() error {
	return e.Err
}
