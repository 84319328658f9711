// Package http implements page and image retrieval over plain HTTP and
// serves the extraction host over a JSON API.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/mira"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultLoadTimeout.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxPageBytes caps the HTML read from a single response.
const DefaultMaxPageBytes = 10 << 20

// UserAgent identifies requests made by this package.
const UserAgent = "mira/1.0 (+https://github.com/fwojciec/mira)"

var _ mira.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML over HTTP without executing JavaScript.
// Pages it returns carry no rendered image sizes.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBytes caps the response body size.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxBytes: DefaultMaxPageBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = &http.Client{Timeout: f.timeout}
	return f
}

// Fetch retrieves the HTML served at url.
// Returns ENOTFOUND for 404 and 410 responses.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	body, _, err := get(ctx, f.client, url, "text/html,application/xhtml+xml", f.maxBytes)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Close is a no-op; http.Client needs no cleanup.
func (f *Fetcher) Close() error {
	return nil
}

func get(ctx context.Context, client *http.Client, url, accept string, maxBytes int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", mira.Errorf(mira.EINVALID, "invalid url %q: %v", url, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, "", mira.Errorf(mira.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(body)) > maxBytes {
		return nil, "", mira.Errorf(mira.EINVALID, "response from %s exceeds %d bytes", url, maxBytes)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
