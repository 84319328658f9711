package mock

import (
	"context"

	"github.com/fwojciec/mira"
)

var (
	_ mira.Fetcher      = (*Fetcher)(nil)
	_ mira.ImageFetcher = (*ImageFetcher)(nil)
)

// Fetcher is a mock implementation of mira.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// ImageFetcher is a mock implementation of mira.ImageFetcher.
type ImageFetcher struct {
	FetchImageFn func(ctx context.Context, url string) ([]byte, string, error)
}

func (f *ImageFetcher) FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	return f.FetchImageFn(ctx, url)
}
