package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// defaultUserAgent identifies the fetcher as a desktop browser.
// Some documentation hosts reject Go's default client identifier.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// defaultMaxBodySize limits response bodies to 10MB.
const defaultMaxBodySize = 10 * 1024 * 1024

// Fetcher performs single HTTP GET requests for documentation pages.
// It holds no per-request state; the underlying client is shared by all
// workers of a run and provides connection pooling.
//
// Fetcher never retries. A failed fetch is terminal for that URL.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds request headers sent with every fetch.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRateLimit caps outgoing requests to rps per second across all callers.
// Zero or negative disables the limit.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher using client.
// The client's Timeout is the hard per-request timeout.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   defaultUserAgent,
		headers:     make(map[string]string),
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads pageURL and returns the body decoded to UTF-8 using the
// charset declared by the server or detected from the document.
// Failures are returned as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	start := time.Now()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", classify(pageURL, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{Kind: FetchErrorNetwork, URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classify(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return "", &FetchError{
			Kind:       FetchErrorHTTPStatus,
			URL:        pageURL,
			StatusCode: resp.StatusCode,
		}
	}

	body, truncated, err := f.readBody(resp)
	if err != nil {
		return "", classify(pageURL, err)
	}
	if truncated {
		f.logger.Warn("response body exceeds size limit, content truncated",
			"url", pageURL,
			"limit", f.maxBodySize,
		)
	}

	f.logger.Debug("fetched page",
		"url", pageURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}

// readBody reads at most maxBodySize bytes and converts them to UTF-8.
// truncated is set when the body was longer than the limit.
func (f *Fetcher) readBody(resp *http.Response) (body string, truncated bool, err error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return "", false, err
	}
	if int64(len(raw)) > f.maxBodySize {
		raw = raw[:f.maxBodySize]
		truncated = true
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", false, fmt.Errorf("decode body: %w", err)
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", false, err
	}
	return string(data), truncated, nil
}

// classify maps a transport error to a FetchError.
func classify(pageURL string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: FetchErrorTimeout, URL: pageURL, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: FetchErrorTimeout, URL: pageURL, Err: err}
	}
	return &FetchError{Kind: FetchErrorNetwork, URL: pageURL, Err: err}
}
