package crawler

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const testBase = "https://site.test"

func newTestExtractor(t *testing.T) *LinkExtractor {
	t.Helper()

	e, err := NewLinkExtractor(testBase, "/docs")
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}
	return e
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	return doc
}

// TestLinkExtractor_Extract tests discovery, filtering and normalization.
func TestLinkExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("nav with in-scope and out-of-scope links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><nav>
			<a href="/docs/intro">Intro</a>
			<a href="/docs/api/">API</a>
			<a href="https://site.test/docs/guide">Guide</a>
			<a href="https://other.test/docs/intro">Elsewhere</a>
			<a href="/blog/post">Blog</a>
			<a href="#top">Top</a>
		</nav></body></html>`

		got, err := newTestExtractor(t).Extract(strings.NewReader(html), testBase+"/docs/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"https://site.test/docs/",
			"https://site.test/docs/api",
			"https://site.test/docs/guide",
			"https://site.test/docs/intro",
		}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("root is always included", func(t *testing.T) {
		t.Parallel()

		got, err := newTestExtractor(t).Extract(strings.NewReader(`<html><body><p>nothing</p></body></html>`), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"https://site.test/docs/"}) {
			t.Errorf("expected only the root, got %v", got)
		}
	})

	t.Run("trailing slash variants collapse", func(t *testing.T) {
		t.Parallel()

		html := `<body><a href="/docs/foo/">a</a><a href="/docs/foo">b</a><a href="/docs">c</a><a href="/docs/">d</a></body>`
		got, err := newTestExtractor(t).Extract(strings.NewReader(html), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://site.test/docs/", "https://site.test/docs/foo"}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("query and fragment are dropped", func(t *testing.T) {
		t.Parallel()

		html := `<body><a href="/docs/foo?x=1#part">a</a></body>`
		got, err := newTestExtractor(t).Extract(strings.NewReader(html), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Contains(got, "https://site.test/docs/foo") {
			t.Errorf("expected normalized URL, got %v", got)
		}
	})

	t.Run("relative links resolve against the document URL", func(t *testing.T) {
		t.Parallel()

		html := `<body><a href="collections">Collections</a></body>`
		got, err := newTestExtractor(t).Extract(strings.NewReader(html), testBase+"/docs/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Contains(got, "https://site.test/docs/collections") {
			t.Errorf("expected resolved link, got %v", got)
		}
	})

	t.Run("relative links without a document URL resolve against the base", func(t *testing.T) {
		t.Parallel()

		html := `<body><a href="collections">Collections</a></body>`
		got, err := newTestExtractor(t).Extract(strings.NewReader(html), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, []string{"https://site.test/docs/"}) {
			t.Errorf("expected /collections to be out of scope, got %v", got)
		}
	})

	t.Run("prefix must end at a segment boundary", func(t *testing.T) {
		t.Parallel()

		html := `<body><a href="/docsify">x</a><a href="/docs-old/a">y</a></body>`
		got, err := newTestExtractor(t).Extract(strings.NewReader(html), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected only the root, got %v", got)
		}
	})
}

// TestLinkExtractor_ScopeBounds tests that N in-scope and M out-of-scope
// links yield between 1 and N+1 URLs and no out-of-scope URL.
func TestLinkExtractor_ScopeBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int
		out  int
	}{
		{"none", 0, 0},
		{"only out of scope", 0, 4},
		{"mixed", 3, 2},
		{"many", 12, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var b strings.Builder
			b.WriteString("<html><body><nav>")
			for i := range tt.in {
				fmt.Fprintf(&b, `<a href="/docs/page-%d">p</a>`, i)
			}
			for i := range tt.out {
				if i%2 == 0 {
					fmt.Fprintf(&b, `<a href="https://other.test/docs/x-%d">x</a>`, i)
				} else {
					fmt.Fprintf(&b, `<a href="/pricing/%d">x</a>`, i)
				}
			}
			b.WriteString("</nav></body></html>")

			got, err := newTestExtractor(t).Extract(strings.NewReader(b.String()), "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) < 1 || len(got) > tt.in+1 {
				t.Errorf("expected between 1 and %d links, got %d", tt.in+1, len(got))
			}
			for _, u := range got {
				if !strings.HasPrefix(u, testBase+"/docs/") {
					t.Errorf("out-of-scope URL returned: %s", u)
				}
			}
		})
	}
}

// TestDiscoveryTiers tests each discovery strategy in isolation.
func TestDiscoveryTiers(t *testing.T) {
	t.Parallel()

	t.Run("sidebar with nested list", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body>
			<aside><p>no list here</p><a href="/docs/ignored">x</a></aside>
			<aside><ul><li><a href="/docs/a">A</a></li><li><a href="/docs/b">B</a></li></ul></aside>
		</body>`)
		got := sidebarLinks(doc, "/docs")
		if !slices.Equal(got, []string{"/docs/a", "/docs/b"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("complementary role counts as sidebar", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body><div role="complementary"><nav><a href="/docs/a">A</a></nav></div></body>`)
		if got := sidebarLinks(doc, "/docs"); len(got) != 1 {
			t.Errorf("expected 1 link, got %v", got)
		}
	})

	t.Run("nav needs more than five doc links", func(t *testing.T) {
		t.Parallel()

		small := `<nav>` + strings.Repeat(`<a href="/docs/x">x</a>`, 5) + `</nav>`
		large := `<nav>` + strings.Repeat(`<a href="intro">x</a>`, 6) + `<a href="https://other.test">o</a></nav>`
		doc := parseDoc(t, `<body>`+small+large+`</body>`)

		got := navLinks(doc, "/docs")
		if len(got) != 6 {
			t.Fatalf("expected the second nav's 6 doc links, got %v", got)
		}
		if slices.Contains(got, "https://other.test") {
			t.Error("absolute link should not be a nav candidate")
		}
	})

	t.Run("all links fallback", func(t *testing.T) {
		t.Parallel()

		doc := parseDoc(t, `<body><a href="/a">a</a><a>no href</a><a href="">empty</a></body>`)
		if got := allLinks(doc, "/docs"); len(got) != 2 {
			t.Errorf("expected 2 links with href, got %v", got)
		}
	})

	t.Run("falls through when sidebar has no in-scope links", func(t *testing.T) {
		t.Parallel()

		html := `<body><aside><ul><li><a href="https://other.test/docs/a">A</a></li></ul></aside>
			<main><a href="/docs/real">Real</a></main></body>`
		got, err := newTestExtractor(t).Extract(strings.NewReader(html), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Contains(got, "https://site.test/docs/real") {
			t.Errorf("expected fallback tier to find link, got %v", got)
		}
	})

	t.Run("first productive tier wins", func(t *testing.T) {
		t.Parallel()

		html := `<body><aside><nav><a href="/docs/side">S</a></nav></aside>
			<footer><a href="/docs/footer">F</a></footer></body>`
		got, err := newTestExtractor(t).Extract(strings.NewReader(html), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if slices.Contains(got, "https://site.test/docs/footer") {
			t.Errorf("expected sidebar tier only, got %v", got)
		}
	})
}

// TestLooksLikeDocHref tests nav candidate classification.
func TestLooksLikeDocHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		want bool
	}{
		{"/docs/intro", true},
		{"intro", true},
		{"./intro", true},
		{"/blog", false},
		{"#anchor", false},
		{"https://site.test/docs/x", false},
		{"mailto:a@b.c", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()

			if got := looksLikeDocHref(tt.href, "/docs"); got != tt.want {
				t.Errorf("looksLikeDocHref(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}
}

// TestLinkExtractor_normalize tests single-link normalization.
func TestLinkExtractor_normalize(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)

	tests := []struct {
		href   string
		want   string
		wantOK bool
	}{
		{"https://site.test/docs/foo/", "https://site.test/docs/foo", true},
		{"https://site.test/docs/foo", "https://site.test/docs/foo", true},
		{"https://SITE.test/docs/foo", "https://site.test/docs/foo", true},
		{"/docs", "https://site.test/docs/", true},
		{"/docs/", "https://site.test/docs/", true},
		{"#frag", "", false},
		{"javascript:void(0)", "", false},
		{"https://other.test/docs/foo", "", false},
		{"/about", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()

			got, ok := e.normalize(e.base, tt.href)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("normalize(%q) = (%q, %v), want (%q, %v)", tt.href, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	t.Run("root URL", func(t *testing.T) {
		t.Parallel()

		if e.RootURL() != "https://site.test/docs/" {
			t.Errorf("unexpected root %q", e.RootURL())
		}
	})
}

// TestNewLinkExtractor_InvalidBase tests base URL validation.
func TestNewLinkExtractor_InvalidBase(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"", "/relative", "site.test"} {
		if _, err := NewLinkExtractor(base, "/docs"); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("NewLinkExtractor(%q): expected ErrInvalidBaseURL, got %v", base, err)
		}
	}
}
