// Package main provides the entry point for the docs2md CLI.
//
// docs2md crawls a documentation website, converts every page reachable from
// the entry page's navigation into Markdown and writes an llms.txt style
// index next to the files.
//
// Usage:
//
//	docs2md crawl https://pocketbase.io/docs/
//	docs2md history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
