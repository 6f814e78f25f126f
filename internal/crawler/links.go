package crawler

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minNavLinks is the number of documentation-looking links a <nav> must
// exceed to be treated as the documentation navigation.
const minNavLinks = 5

// linkStrategy is one discovery tier. collect returns raw href values.
type linkStrategy struct {
	name    string
	collect func(doc *goquery.Document, prefix string) []string
}

// discoveryTiers are tried in order until one yields an in-scope link.
var discoveryTiers = []linkStrategy{
	{name: "sidebar", collect: sidebarLinks},
	{name: "nav", collect: navLinks},
	{name: "all", collect: allLinks},
}

// LinkExtractor derives the set of in-scope documentation URLs from a page.
//
// A link is in scope when it resolves to the site host and its path lies
// under the documentation prefix. In-scope URLs are normalized to
// scheme://host/path without query or fragment; a trailing slash is removed
// except on the documentation root, which is always part of the result.
type LinkExtractor struct {
	base   *url.URL
	prefix string
	logger *slog.Logger
}

// LinkExtractorOption configures a LinkExtractor.
type LinkExtractorOption func(*LinkExtractor)

// WithLinkLogger sets the logger.
func WithLinkLogger(logger *slog.Logger) LinkExtractorOption {
	return func(e *LinkExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewLinkExtractor creates a LinkExtractor for the site at baseURL whose
// documentation lives under docsPrefix (e.g. "/docs").
func NewLinkExtractor(baseURL, docsPrefix string, opts ...LinkExtractorOption) (*LinkExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	e := &LinkExtractor{
		base:   base,
		prefix: strings.TrimSuffix(docsPrefix, "/"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RootURL returns the normalized documentation root, e.g. https://site/docs/.
func (e *LinkExtractor) RootURL() string {
	return e.absolute(e.rootPath())
}

// Extract parses an HTML document served at docURL and returns the sorted,
// deduplicated set of in-scope documentation URLs. Relative links are
// resolved against docURL, not the site base URL, so a page-relative href
// such as "intro" on /docs/ yields /docs/intro. The base URL is used only
// when docURL is empty. The documentation root is always included.
func (e *LinkExtractor) Extract(r io.Reader, docURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	ref := e.base
	if docURL != "" {
		if u, err := url.Parse(docURL); err == nil && u.IsAbs() {
			ref = u
		}
	}

	set := map[string]struct{}{e.RootURL(): {}}
	for _, tier := range discoveryTiers {
		hrefs := tier.collect(doc, e.prefix)
		found := 0
		for _, href := range hrefs {
			if u, ok := e.normalize(ref, href); ok {
				set[u] = struct{}{}
				found++
			}
		}
		if found > 0 {
			e.logger.Info("discovered documentation links",
				"strategy", tier.name,
				"candidates", len(hrefs),
				"in_scope", found,
			)
			break
		}
		e.logger.Debug("discovery strategy yielded no in-scope links", "strategy", tier.name)
	}

	links := make([]string, 0, len(set))
	for u := range set {
		links = append(links, u)
	}
	slices.Sort(links)
	return links, nil
}

// normalize resolves href against ref and returns its canonical absolute
// form if it is an in-scope documentation link.
func (e *LinkExtractor) normalize(ref *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := ref.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(abs.Host, e.base.Host) {
		return "", false
	}
	if !e.inScope(abs.Path) {
		return "", false
	}
	return e.absolute(e.canonicalPath(abs.Path)), true
}

// inScope reports whether p is the prefix itself or below it.
func (e *LinkExtractor) inScope(p string) bool {
	return p == e.prefix || strings.HasPrefix(p, e.prefix+"/")
}

func (e *LinkExtractor) rootPath() string {
	return e.prefix + "/"
}

func (e *LinkExtractor) canonicalPath(p string) string {
	if p == e.prefix || p == e.rootPath() {
		return e.rootPath()
	}
	return strings.TrimRight(p, "/")
}

func (e *LinkExtractor) absolute(p string) string {
	u := url.URL{Scheme: e.base.Scheme, Host: e.base.Host, Path: p}
	return u.String()
}

// sidebarLinks returns every link inside the first complementary landmark
// that contains a navigation list.
func sidebarLinks(doc *goquery.Document, _ string) []string {
	var hrefs []string
	doc.Find(`aside, [role="complementary"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Find("nav, ul").Length() == 0 {
			return true
		}
		hrefs = collectHrefs(s.Find("a[href]"))
		return false
	})
	return hrefs
}

// navLinks returns the documentation-looking links of the first <nav> that
// has more than minNavLinks of them.
func navLinks(doc *goquery.Document, prefix string) []string {
	var hrefs []string
	doc.Find("nav").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidates := s.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			return looksLikeDocHref(href, prefix)
		})
		if candidates.Length() > minNavLinks {
			hrefs = collectHrefs(candidates)
			return false
		}
		return true
	})
	return hrefs
}

// allLinks returns every link of the document.
func allLinks(doc *goquery.Document, _ string) []string {
	return collectHrefs(doc.Find("a[href]"))
}

// looksLikeDocHref reports whether href starts with the documentation prefix
// or is a relative path that is neither absolute, root-relative nor a fragment.
func looksLikeDocHref(href, prefix string) bool {
	if prefix != "" && strings.HasPrefix(href, prefix) {
		return true
	}
	if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") {
		return false
	}
	u, err := url.Parse(href)
	return err == nil && u.Scheme == ""
}

func collectHrefs(s *goquery.Selection) []string {
	hrefs := make([]string, 0, s.Length())
	s.Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}
