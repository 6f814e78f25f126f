package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs a plain-text summary for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose also lists the indexed pages.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables listing every indexed page.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(s *RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, s)
	w.writeCounts(&sb, s)
	if w.verbose {
		w.writeIndexed(&sb, s)
	}
	w.writeChanged(&sb, s)
	w.writeFailed(&sb, s)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

func section(sb *strings.Builder, title string) {
	rule(sb, "-")
	sb.WriteString(title + "\n")
	rule(sb, "-")
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *RunSummary) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                       DOCS2MD CRAWL REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Entry URL:  %s\n", s.EntryURL)
	fmt.Fprintf(sb, "Output:     %s\n", s.OutputDir)
	fmt.Fprintf(sb, "Started:    %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Elapsed:    %s\n", s.Elapsed().Round(time.Millisecond))
	if s.Complete() {
		sb.WriteString("Status:     Complete\n")
	} else {
		fmt.Fprintf(sb, "Status:     ERROR - %s\n", s.Error)
	}
	if s.RunID > 0 {
		fmt.Fprintf(sb, "Run ID:     %d\n", s.RunID)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *RunSummary) {
	section(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Attempted:  %d\n", s.Discovered)
	fmt.Fprintf(sb, "  Indexed:    %d\n", s.Indexed)
	fmt.Fprintf(sb, "  Failed:     %d\n", s.Failed)
	if s.ManifestPath != "" {
		fmt.Fprintf(sb, "  Manifest:   %s\n", s.ManifestPath)
	} else {
		sb.WriteString("  Manifest:   not written\n")
	}
	if len(s.LowContentURLs) > 0 {
		fmt.Fprintf(sb, "  Low content: %d page(s)\n", len(s.LowContentURLs))
	}
	if len(s.DegradedURLs) > 0 {
		fmt.Fprintf(sb, "  Plain text:  %d page(s)\n", len(s.DegradedURLs))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIndexed(sb *strings.Builder, s *RunSummary) {
	if len(s.IndexedPages) == 0 {
		return
	}
	section(sb, "INDEXED PAGES")
	for _, e := range s.IndexedPages {
		fmt.Fprintf(sb, "  [+] %s: %s\n", e.Filename, e.CleanTitle())
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeChanged(sb *strings.Builder, s *RunSummary) {
	if s.ChangedURLs == nil {
		return
	}
	section(sb, "CHANGED SINCE PREVIOUS RUN")
	if len(s.ChangedURLs) == 0 {
		sb.WriteString("  No content changes\n\n")
		return
	}
	for _, u := range s.ChangedURLs {
		fmt.Fprintf(sb, "  [*] %s\n", u)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailed(sb *strings.Builder, s *RunSummary) {
	section(sb, "FAILED URLS")
	if len(s.FailedPages) == 0 {
		sb.WriteString("  All discovered documentation pages were processed without errors.\n\n")
		return
	}
	for _, f := range s.FailedPages {
		fmt.Fprintf(sb, "  [-] %s\n", f.URL)
		if f.Error != "" {
			fmt.Fprintf(sb, "      %s\n", f.Error)
		}
	}
	sb.WriteString("\n")
}
