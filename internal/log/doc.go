// Package log builds the slog loggers used by docs2md.
//
// Loggers are wrapped in a RedactingHandler so request headers configured by
// the user (authorization, cookies, API keys) and proxy credentials embedded
// in URLs never reach log output, even in verbose mode.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("request headers", slog.Group("headers", "Authorization", "Bearer x"))
//	// headers.Authorization=***REDACTED***
package log
