package http

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/mira"
)

// DefaultMaxImageBytes caps the size of a downloaded image.
const DefaultMaxImageBytes = 20 << 20

var _ mira.ImageFetcher = (*ImageFetcher)(nil)

// ImageFetcher downloads images over HTTP and decodes data: URLs in place.
type ImageFetcher struct {
	client   *http.Client
	limiter  *DomainLimiter
	maxBytes int64
}

// ImageOption configures an ImageFetcher.
type ImageOption func(*ImageFetcher)

// WithImageTimeout sets the timeout for a single download.
func WithImageTimeout(d time.Duration) ImageOption {
	return func(f *ImageFetcher) {
		f.client.Timeout = d
	}
}

// WithDomainLimiter throttles downloads per host.
func WithDomainLimiter(l *DomainLimiter) ImageOption {
	return func(f *ImageFetcher) {
		f.limiter = l
	}
}

// WithMaxImageBytes caps the size of a downloaded image.
func WithMaxImageBytes(n int64) ImageOption {
	return func(f *ImageFetcher) {
		f.maxBytes = n
	}
}

// NewImageFetcher creates a new ImageFetcher.
func NewImageFetcher(opts ...ImageOption) *ImageFetcher {
	f := &ImageFetcher{
		client:   &http.Client{Timeout: DefaultFetchTimeout},
		maxBytes: DefaultMaxImageBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchImage returns the bytes and declared content type of the image at rawURL.
func (f *ImageFetcher) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURL(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", mira.Errorf(mira.EINVALID, "unsupported image url %q", rawURL)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
			return nil, "", err
		}
	}

	return get(ctx, f.client, rawURL, "image/*", f.maxBytes)
}

// decodeDataURL decodes an RFC 2397 data URL.
func decodeDataURL(raw string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, "", mira.Errorf(mira.EINVALID, "malformed data url")
	}

	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "text/plain;charset=US-ASCII"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", mira.Errorf(mira.EINVALID, "malformed data url: %v", err)
		}
		return data, contentType, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", mira.Errorf(mira.EINVALID, "malformed data url: %v", err)
	}
	return []byte(data), contentType, nil
}
