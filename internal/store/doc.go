// Package store writes crawl results to the output directory.
//
// Sanitize maps a URL path slug to a file name, PageStore writes one
// Markdown file per page and IndexBuilder writes the manifest that lists
// every indexed page sorted by file name.
//
// Every file is written to a temporary file in the same directory and then
// renamed, so a reader never observes a partially written page or manifest.
package store
