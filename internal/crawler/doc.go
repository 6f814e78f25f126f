// Package crawler fetches documentation pages and discovers the page set.
//
// # Components
//
//   - Fetcher: one HTTP GET per call with a shared client, browser-like
//     identification, charset decoding and error classification
//   - LinkExtractor: derives in-scope documentation URLs from the entry page
//     using tiered discovery (sidebar, then <nav>, then every link)
//   - NewHTTPClient: the shared client, optionally routed through a proxy
//
// # Errors
//
// Fetch failures are returned as *FetchError and match exactly one of
// ErrTimeout, ErrHTTPStatus or ErrNetwork with errors.Is.
//
// # Usage
//
//	client, err := crawler.NewHTTPClient(20*time.Second, "", 10)
//	fetcher := crawler.NewFetcher(client, crawler.WithUserAgent(ua))
//	body, err := fetcher.Fetch(ctx, "https://pocketbase.io/docs/")
//
//	extractor, err := crawler.NewLinkExtractor("https://pocketbase.io", "/docs")
//	urls, err := extractor.Extract(strings.NewReader(body), "https://pocketbase.io/docs/")
package crawler
