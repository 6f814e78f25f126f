package report

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnknownFormat is returned by CheckFormat for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Writer writes a run summary in one output format.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *RunSummary) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// CheckFormat returns ErrUnknownFormat unless format is one NewWriter accepts.
func CheckFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatMarkdown:
		return nil
	default:
		return fmt.Errorf("%w: %q (want %s, %s or %s)", ErrUnknownFormat, format, FormatText, FormatJSON, FormatMarkdown)
	}
}

// NewWriter returns the writer for format ("text", "json" or "markdown").
// Formats rejected by CheckFormat fall back to text.
func NewWriter(format string, output io.Writer, verbose bool) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output, WithVerbose(verbose))
	}
}

// Output formats accepted by NewWriter.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)
