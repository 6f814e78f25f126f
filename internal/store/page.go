package store

import (
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
)

// sourceHeader starts every page file.
const sourceHeader = "# Source URL: "

// PageStore writes one Markdown file per documentation page.
// Concurrent saves to distinct file names are independent. Two URLs that
// map to the same file name overwrite each other; callers that need to
// prevent that check Filename before dispatching work.
type PageStore struct {
	dir    string
	prefix string
	logger *slog.Logger
}

// PageStoreOption configures a PageStore.
type PageStoreOption func(*PageStore)

// WithPageLogger sets the logger.
func WithPageLogger(logger *slog.Logger) PageStoreOption {
	return func(s *PageStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPageStore creates a PageStore writing into dir. docsPrefix is stripped
// from URL paths to form slugs.
func NewPageStore(dir, docsPrefix string, opts ...PageStoreOption) *PageStore {
	s := &PageStore{
		dir:    dir,
		prefix: strings.TrimSuffix(docsPrefix, "/"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the output directory.
func (s *PageStore) Dir() string {
	return s.dir
}

// Slug derives the unsanitized slug of pageURL: its path below the
// documentation prefix, or "index" for the documentation root.
// Paths outside the prefix use the whole path.
func (s *PageStore) Slug(pageURL string) string {
	p := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		p = u.Path
	}

	switch {
	case p == s.prefix || p == s.prefix+"/":
		return IndexSlug
	case strings.HasPrefix(p, s.prefix+"/"):
		if rest := p[len(s.prefix)+1:]; rest != "" {
			return rest
		}
		return IndexSlug
	default:
		s.logger.Warn("unexpected path structure", "url", pageURL, "path", p)
		return strings.Trim(p, "/")
	}
}

// Filename returns the file name pageURL is saved under.
func (s *PageStore) Filename(pageURL string) string {
	return Sanitize(s.Slug(pageURL)) + MarkdownExt
}

// Render returns the file content for a page: a provenance header line,
// a blank line and the trimmed Markdown body.
func Render(pageURL, markdown string) []byte {
	return []byte(sourceHeader + pageURL + "\n\n" + strings.TrimSpace(markdown))
}

// Save writes markdown for pageURL and returns the file name.
// It returns ErrEmptyContent for an empty body and *SaveError when the
// write fails. A file is either completely written or not at all.
func (s *PageStore) Save(pageURL, markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		s.logger.Warn("skipping save due to missing or empty content", "url", pageURL)
		return "", ErrEmptyContent
	}

	filename := s.Filename(pageURL)
	path := filepath.Join(s.dir, filename)
	if err := writeFileAtomic(path, Render(pageURL, markdown)); err != nil {
		s.logger.Error("failed to save page", "url", pageURL, "path", path, "error", err)
		return "", &SaveError{Path: path, Err: err}
	}

	s.logger.Info("saved page", "path", path)
	return filename, nil
}
