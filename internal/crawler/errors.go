package crawler

import (
	"errors"
	"fmt"
)

// Fetch failure classes. A *FetchError matches exactly one of them with errors.Is.
var (
	// ErrTimeout is matched when the request did not complete within the client timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrHTTPStatus is matched when the server answered with a non-2xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrNetwork is matched for connection, transport and body read failures.
	ErrNetwork = errors.New("network error")
)

// Link extraction and client setup errors.
var (
	// ErrInvalidBaseURL is returned when the site base URL is not absolute.
	ErrInvalidBaseURL = errors.New("base URL must be absolute")

	// ErrInvalidProxy is returned when the proxy URL cannot be turned into a transport.
	ErrInvalidProxy = errors.New("unsupported proxy URL")
)

// FetchErrorKind classifies a failed fetch.
type FetchErrorKind int

const (
	// FetchErrorNetwork covers DNS, connection and transport failures.
	FetchErrorNetwork FetchErrorKind = iota

	// FetchErrorTimeout means the per-request timeout elapsed.
	FetchErrorTimeout

	// FetchErrorHTTPStatus means a response arrived with a non-2xx status.
	FetchErrorHTTPStatus
)

// String returns the kind name used in logs and history records.
func (k FetchErrorKind) String() string {
	switch k {
	case FetchErrorTimeout:
		return "timeout"
	case FetchErrorHTTPStatus:
		return "http_status"
	default:
		return "network"
	}
}

// FetchError describes why a page could not be fetched.
type FetchError struct {
	// Kind is the failure class.
	Kind FetchErrorKind

	// URL is the requested URL.
	URL string

	// StatusCode is set for FetchErrorHTTPStatus.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrorHTTPStatus:
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	case FetchErrorTimeout:
		return fmt.Sprintf("fetch %s: timeout: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == FetchErrorTimeout
	case ErrHTTPStatus:
		return e.Kind == FetchErrorHTTPStatus
	case ErrNetwork:
		return e.Kind == FetchErrorNetwork
	}
	return false
}
