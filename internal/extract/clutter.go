package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// DefaultClutterSelectors are removed from the content region before rendering.
var DefaultClutterSelectors = []string{
	"nav",
	"aside",
	"header",
	"footer",
	".toc",
	".page-toc",
	".breadcrumbs",
	".edit-page-link",
	"button.edit-page-button",
	".feedback-widget",
	"script",
	"style",
	"noscript",
	"svg",
	".next-prev-links",
	".language-tabs > .tabs",
	".code-toolbar > .toolbar",
	"div.code-toolbar > button",
	`div[class*="language-"] > button`,
	".code-copy-button-container",
}

// clutterRule is one compiled denylist entry.
type clutterRule struct {
	selector string
	matcher  goquery.Matcher
}

// compileClutter compiles every selector. Selectors that fail to compile are
// returned as errors and left out of the rule set.
func compileClutter(selectors []string) ([]clutterRule, []error) {
	rules := make([]clutterRule, 0, len(selectors))
	var errs []error
	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("compile clutter selector %q: %w", s, err))
			continue
		}
		rules = append(rules, clutterRule{selector: s, matcher: sel})
	}
	return rules, errs
}

// removeClutter applies every rule to region and returns how many elements
// were removed plus one error per rule that failed. A failing rule never
// stops the remaining ones.
func removeClutter(region *goquery.Selection, rules []clutterRule) (int, []error) {
	removed := 0
	var errs []error
	for _, rule := range rules {
		n, err := applyRule(region, rule)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed += n
	}
	return removed, errs
}

func applyRule(region *goquery.Selection, rule clutterRule) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("apply clutter selector %q: %v", rule.selector, r)
		}
	}()

	matched := region.FindMatcher(rule.matcher)
	n = matched.Length()
	matched.Remove()
	return n, nil
}
