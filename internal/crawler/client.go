package crawler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains followed by the client.
const maxRedirects = 10

// NewHTTPClient returns the client shared by every fetch of a run.
// The client is safe for concurrent use; its transport keeps enough idle
// connections per host for the worker pool.
//
// proxyURL may be empty (direct connection), socks5://host:port or
// http(s)://host:port.
func NewHTTPClient(timeout time.Duration, proxyURL string, idlePerHost int) (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("%w: default transport is not *http.Transport", ErrInvalidProxy)
	}
	transport := base.Clone()
	if idlePerHost > 0 {
		transport.MaxIdleConnsPerHost = idlePerHost
	}

	if proxyURL != "" {
		if err := configureProxy(transport, proxyURL); err != nil {
			return nil, err
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

func configureProxy(transport *http.Transport, proxyURL string) error {
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidProxy, proxyURL)
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
		return nil
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProxy, err)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer(dialer)
		return nil
	default:
		return fmt.Errorf("%w: scheme %q", ErrInvalidProxy, u.Scheme)
	}
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
// Dialers without context support are raced against ctx; an abandoned dial
// may finish in the background.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case r := <-resultCh:
			return r.conn, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
