package mira

import "context"

// Fetcher retrieves HTML from URLs.
type Fetcher interface {
	// Fetch returns the HTML served at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// ImageFetcher retrieves image bytes.
type ImageFetcher interface {
	// FetchImage returns the body and content type served at url.
	FetchImage(ctx context.Context, url string) (data []byte, contentType string, err error)
}
