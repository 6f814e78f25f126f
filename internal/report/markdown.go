package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs the run summary as a Markdown document, suitable
// for committing next to the generated files or attaching to a CI job.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(s *RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeOutcomes(md, s)
	w.writeIndexed(md, s)
	w.writeChanged(md, s)
	w.writeFailed(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *RunSummary) {
	md.H1("Documentation Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Entry URL", "`" + s.EntryURL + "`"},
		{"Output Directory", "`" + s.OutputDir + "`"},
		{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Elapsed", s.Elapsed().Round(time.Millisecond).String()},
		{"Status", statusText(s)},
	}
	if s.ManifestPath != "" {
		rows = append(rows, []string{"Manifest", "`" + s.ManifestPath + "`"})
	}
	if s.RunID > 0 {
		rows = append(rows, []string{"Run ID", strconv.FormatInt(s.RunID, 10)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(s *RunSummary) string {
	if !s.Complete() {
		return "❌ Error - " + s.Error
	}
	if s.Failed > 0 {
		return "⚠️ Complete with failures"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, s *RunSummary) {
	md.H2("Summary")
	md.PlainText("")

	rows := [][]string{
		{"Attempted", strconv.Itoa(s.Discovered)},
		{"Indexed", strconv.Itoa(s.Indexed)},
		{"Failed", strconv.Itoa(s.Failed)},
	}
	for _, oc := range s.Outcomes {
		rows = append(rows, []string{"`" + oc.Outcome + "`", strconv.Itoa(oc.Count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.Discovered > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case !s.Complete():
		md.Cautionf("The crawl was aborted: %s", s.Error)
	case s.Failed > 0:
		md.Warningf("%d of %d page(s) could not be converted. See the failed list below.", s.Failed, s.Discovered)
	case len(s.DegradedURLs) > 0:
		md.Importantf("%d page(s) could not be converted to Markdown and were saved as plain text.",
			len(s.DegradedURLs))
	case len(s.LowContentURLs) > 0:
		md.Importantf("%d page(s) produced very little content and may need a different content selector.",
			len(s.LowContentURLs))
	default:
		md.Tip("Every discovered page was converted and indexed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)
	for _, oc := range s.Outcomes {
		if oc.Count > 0 {
			chart.LabelAndIntValue(oc.Outcome, uint64(oc.Count))
		}
	}
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeIndexed(md *markdown.Markdown, s *RunSummary) {
	md.H2("Indexed Pages")
	md.PlainText("")

	if len(s.IndexedPages) == 0 {
		md.PlainText("No pages were indexed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.IndexedPages))
	for i, e := range s.IndexedPages {
		rows[i] = []string{"`" + e.Filename + "`", e.CleanTitle()}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeChanged(md *markdown.Markdown, s *RunSummary) {
	if s.ChangedURLs == nil {
		return
	}
	md.H2("Changed Since Previous Run")
	md.PlainText("")
	if len(s.ChangedURLs) == 0 {
		md.PlainText("No content changes.")
	} else {
		md.BulletList(s.ChangedURLs...)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailed(md *markdown.Markdown, s *RunSummary) {
	md.H2("Failed URLs")
	md.PlainText("")

	if len(s.FailedPages) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.FailedPages))
	for i, f := range s.FailedPages {
		cause := f.Error
		if cause == "" {
			cause = "-"
		}
		rows[i] = []string{f.URL, truncateString(cause, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docs2md](https://github.com/nao1215/docs2md)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
