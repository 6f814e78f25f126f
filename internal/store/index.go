package store

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/nao1215/docs2md/internal/model"
)

// IndexBuilder writes the manifest listing every indexed page.
type IndexBuilder struct {
	dir      string
	filename string
	siteName string
	logger   *slog.Logger
}

// IndexBuilderOption configures an IndexBuilder.
type IndexBuilderOption func(*IndexBuilder)

// WithSiteName sets the site name used in the manifest header.
func WithSiteName(name string) IndexBuilderOption {
	return func(b *IndexBuilder) {
		if name != "" {
			b.siteName = name
		}
	}
}

// WithIndexLogger sets the logger.
func WithIndexLogger(logger *slog.Logger) IndexBuilderOption {
	return func(b *IndexBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewIndexBuilder creates an IndexBuilder writing dir/filename.
func NewIndexBuilder(dir, filename string, opts ...IndexBuilderOption) *IndexBuilder {
	b := &IndexBuilder{
		dir:      dir,
		filename: filename,
		siteName: "Documentation",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Path returns the manifest path.
func (b *IndexBuilder) Path() string {
	return filepath.Join(b.dir, b.filename)
}

// Render returns the manifest content: a two-line header, a blank line and
// one "filename: title" line per entry sorted by file name. The input slice
// is not modified, so any permutation of the same entries renders identically.
func (b *IndexBuilder) Render(entries []model.IndexEntry) []byte {
	sorted := slices.Clone(entries)
	model.SortIndexEntries(sorted)

	var buf bytes.Buffer
	buf.WriteString("# " + b.siteName + " Documentation Index for LLM\n")
	buf.WriteString("# Format: filename.md: Page Title/Description\n\n")
	for _, e := range sorted {
		buf.WriteString(e.Filename + ": " + e.CleanTitle() + "\n")
	}
	return buf.Bytes()
}

// Build writes the manifest and returns its path. With no entries it logs a
// warning, writes nothing and returns ErrNoEntries. A write failure is
// logged and returned as *SaveError; page files already written stay.
func (b *IndexBuilder) Build(entries []model.IndexEntry) (string, error) {
	path := b.Path()
	if len(entries) == 0 {
		b.logger.Warn("no data collected to generate index file", "path", path)
		return "", ErrNoEntries
	}

	b.logger.Info("generating index file", "path", path)
	if err := writeFileAtomic(path, b.Render(entries)); err != nil {
		b.logger.Error("failed to write index file", "path", path, "error", err)
		return "", &SaveError{Path: path, Err: err}
	}
	b.logger.Info("generated index file", "path", path, "entries", len(entries))
	return path, nil
}
