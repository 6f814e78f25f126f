package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/docs2md/internal/config"
)

// UntitledTitle is used when a page has neither an <h1> nor a <title>.
const UntitledTitle = "Untitled"

// LowContentThreshold is the Markdown length below which a page is flagged.
const LowContentThreshold = 20

// excessNewlines matches runs of three or more newlines.
var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Result is the outcome of extracting one page.
type Result struct {
	// Markdown is the rendered content, trimmed. It may be empty.
	Markdown string

	// Title is the page title. It is never empty.
	Title string

	// LowContent is set when Markdown is shorter than LowContentThreshold.
	LowContent bool

	// Degraded is set when rendering failed and Markdown holds plain text.
	Degraded bool
}

// Extractor locates, cleans and renders the main content of a page.
// It is safe for concurrent use.
type Extractor struct {
	contentClass *regexp.Regexp
	titleSuffix  *regexp.Regexp
	rules        []clutterRule
	renderer     Renderer
	logger       *slog.Logger

	selectors []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithContentClass sets the pattern matched against each class name to
// find the content region.
func WithContentClass(re *regexp.Regexp) Option {
	return func(e *Extractor) {
		if re != nil {
			e.contentClass = re
		}
	}
}

// WithTitleSuffix sets the site suffix removed from <title> text,
// e.g. "| PocketBase". Matching ignores case.
func WithTitleSuffix(suffix string) Option {
	return func(e *Extractor) {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			e.titleSuffix = nil
			return
		}
		e.titleSuffix = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(suffix))
	}
}

// WithRenderer replaces the Markdown renderer.
func WithRenderer(r Renderer) Option {
	return func(e *Extractor) {
		if r != nil {
			e.renderer = r
		}
	}
}

// WithClutterSelectors replaces the clutter denylist.
func WithClutterSelectors(selectors []string) Option {
	return func(e *Extractor) {
		e.selectors = selectors
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor. Clutter selectors are compiled here;
// the ones that fail to compile are logged and skipped for every page.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		contentClass: regexp.MustCompile(config.DefaultContentClassPattern),
		renderer:     NewMarkdownRenderer(),
		logger:       slog.Default(),
		selectors:    DefaultClutterSelectors,
	}
	for _, opt := range opts {
		opt(e)
	}

	rules, errs := compileClutter(e.selectors)
	for _, err := range errs {
		e.logger.Warn("skipping clutter selector", "error", err)
	}
	e.rules = rules
	return e
}

// Extract converts the HTML document served at pageURL.
// It fails only with ErrNoContentRegion; every other problem degrades the
// result instead.
func (e *Extractor) Extract(doc string, pageURL string) (*Result, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoContentRegion, err)
	}

	region := e.contentRegion(d)
	if region == nil {
		return nil, ErrNoContentRegion
	}

	result := &Result{Title: e.title(d, region)}

	removed, errs := removeClutter(region, e.rules)
	for _, err := range errs {
		e.logger.Warn("clutter removal failed", "url", pageURL, "error", err)
	}
	e.logger.Debug("removed clutter", "url", pageURL, "elements", removed)

	markdown, err := e.render(region)
	if err != nil {
		e.logger.Error("markdown conversion failed", "url", pageURL, "error", err)
		markdown = fmt.Sprintf("Error during Markdown conversion: %v\n\n", err) + plainText(region)
		result.Degraded = true
	}

	result.Markdown = strings.TrimSpace(excessNewlines.ReplaceAllString(markdown, "\n\n"))
	if len(result.Markdown) < LowContentThreshold {
		result.LowContent = true
		e.logger.Warn("extracted very little or no markdown content",
			"url", pageURL,
			"length", len(result.Markdown),
		)
	}
	return result, nil
}

// contentRegion returns the first element with a matching class name,
// else <main>, else <body>, else nil.
func (e *Extractor) contentRegion(d *goquery.Document) *goquery.Selection {
	byClass := d.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		for _, name := range strings.Fields(class) {
			if e.contentClass.MatchString(name) {
				return true
			}
		}
		return false
	}).First()
	if byClass.Length() > 0 {
		return byClass
	}
	if landmark := d.Find("main").First(); landmark.Length() > 0 {
		return landmark
	}
	if body := d.Find("body").First(); body.Length() > 0 {
		return body
	}
	return nil
}

// title prefers the region's first <h1>, then the document <title> without
// the site suffix, then UntitledTitle.
func (e *Extractor) title(d *goquery.Document, region *goquery.Selection) string {
	if h1 := collapseSpace(region.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	t := d.Find("title").First().Text()
	if e.titleSuffix != nil {
		t = e.titleSuffix.ReplaceAllString(t, "")
	}
	if t = collapseSpace(t); t != "" {
		return t
	}
	return UntitledTitle
}

// render runs the renderer, turning a panic into an error.
func (e *Extractor) render(region *goquery.Selection) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panic: %v", r)
		}
	}()

	// The region's own wrapper is left out; a wrapping <div> makes the
	// converter lose the indentation of nested lists.
	fragment, err := region.Html()
	if err != nil {
		return "", err
	}
	return e.renderer.Render(fragment)
}

// plainText returns the non-blank text nodes of the region, one per line.
func plainText(region *goquery.Selection) string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				lines = append(lines, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range region.Nodes {
		walk(n)
	}
	return strings.Join(lines, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
