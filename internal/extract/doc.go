// Package extract turns a documentation page into Markdown.
//
// Extractor locates the main content region (content-class element, then
// <main>, then <body>), reads the page title, removes navigation and other
// clutter with a fixed selector denylist and renders the rest to Markdown.
// Clutter selectors are compiled once; a selector that fails to compile or
// to apply is logged and skipped without failing the page. A failing
// renderer degrades to the plain text of the region with an inline note.
package extract
