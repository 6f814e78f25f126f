package extract

import "errors"

var (
	// ErrNoContentRegion is returned when a document has neither a
	// content-class element, a <main> landmark nor a <body>.
	ErrNoContentRegion = errors.New("no content region found")

	// ErrEmptyContent marks a page whose rendered Markdown is empty.
	// Extract itself does not return it; callers use it to record the outcome.
	ErrEmptyContent = errors.New("extracted content is empty")
)
