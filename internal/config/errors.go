package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	// ErrInvalidEntryURL is returned when the entry URL is not an absolute http(s) URL.
	ErrInvalidEntryURL = errors.New("invalid entry URL: must be an absolute http or https URL")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidDocsPrefix is returned when the documentation prefix does not start with "/".
	ErrInvalidDocsPrefix = errors.New("invalid docs prefix: must start with '/'")

	// ErrNoOutputDir is returned when no output directory is configured.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidIndexFilename is returned when the manifest name is empty or contains a path separator.
	ErrInvalidIndexFilename = errors.New("invalid index filename: must be a plain file name")

	// ErrInvalidWorkers is returned when the worker pool width is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRequestDelay is returned when the pacing delay is negative.
	ErrInvalidRequestDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCollisionPolicy is returned for an unknown collision policy.
	ErrInvalidCollisionPolicy = errors.New("invalid collision policy: must be 'report' or 'overwrite'")

	// ErrInvalidProxyURL is returned when the proxy URL cannot be used.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: expected socks5://, http:// or https:// with a host")

	// ErrInvalidContentPattern is returned when the content class pattern is empty or does not compile.
	ErrInvalidContentPattern = errors.New("invalid content class pattern: must be a valid regular expression")
)
