package store

import (
	"regexp"
	"strings"
	"unicode"
)

// IndexSlug is the slug of the documentation root.
const IndexSlug = "index"

// MarkdownExt is appended to every page file name.
const MarkdownExt = ".md"

var (
	separatorRuns = regexp.MustCompile(`[\\/]+`)
	unsafeChars   = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)
)

// Sanitize maps a slug to a file-system safe name.
// Surrounding slashes and whitespace are trimmed, each run of '/' or '\'
// becomes '_', and every character outside [A-Za-z0-9_-] is dropped.
// An empty result becomes "index". Sanitize is idempotent.
func Sanitize(slug string) string {
	name := strings.TrimFunc(slug, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	name = separatorRuns.ReplaceAllString(name, "_")
	name = unsafeChars.ReplaceAllString(name, "")
	if name == "" {
		return IndexSlug
	}
	return name
}
