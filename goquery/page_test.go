package goquery_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/goquery"
	"github.com/fwojciec/mira/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure PageLoader implements mira.PageLoader.
var _ mira.PageLoader = (*goquery.PageLoader)(nil)

func TestParsePage(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title> Release notes </title><script>var x = 1;</script></head>
<body>
<h1>Version 2.0</h1>
<p>New   features <b>and</b>
fixes.</p>
<script>track()</script>
<div hidden>secret</div>
<img src="/img/hero.png" width="800" height="400px">
<img src="https://cdn.example.com/icon.svg">
</body>
</html>`

	page, err := goquery.ParsePage("https://example.com/blog/release", html)

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/blog/release", page.URL)
	assert.Equal(t, "Release notes", page.Title)
	assert.Equal(t, html, page.HTML)
	assert.Equal(t, "Version 2.0\n\nNew features and fixes.", page.BodyText)
	assert.Equal(t, mira.ImageSize{Width: 800, Height: 400}, page.Images["https://example.com/img/hero.png"])
	assert.Contains(t, page.Images, "https://cdn.example.com/icon.svg")
}

func TestInnerText_PreservesPreformattedText(t *testing.T) {
	t.Parallel()

	page, err := goquery.ParsePage("https://example.com", "<body><p>Run:</p><pre>go test\n./...</pre></body>")

	require.NoError(t, err)
	assert.Equal(t, "Run:\n\ngo test\n./...", page.BodyText)
}

func TestPageLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("parses fetched HTML", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return `<html><head><title>Hi</title></head><body><p>Body</p></body></html>`, nil
			},
		}

		page, err := goquery.NewPageLoader(fetcher).Load(context.Background(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, "Hi", page.Title)
		assert.Equal(t, "Body", page.BodyText)
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return "", errors.New("connection refused")
			},
		}

		_, err := goquery.NewPageLoader(fetcher).Load(context.Background(), "https://example.com")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("probes natural size of unsized images", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240))))

		fetcher := &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return `<body><img src="/photo.png"><img src="/sized.png" width="10" height="10"><img src="/broken.png"></body>`, nil
			},
		}
		images := &mock.ImageFetcher{
			FetchImageFn: func(_ context.Context, url string) ([]byte, string, error) {
				if url == "https://example.com/broken.png" {
					return nil, "", errors.New("404")
				}
				return buf.Bytes(), "image/png", nil
			},
		}

		loader := goquery.NewPageLoader(fetcher, goquery.WithImageProbe(images, goquery.DefaultProbeLimit))
		page, err := loader.Load(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, mira.ImageSize{NaturalWidth: 320, NaturalHeight: 240}, page.Images["https://example.com/photo.png"])
		assert.Equal(t, mira.ImageSize{Width: 10, Height: 10}, page.Images["https://example.com/sized.png"])
		assert.Equal(t, mira.ImageSize{}, page.Images["https://example.com/broken.png"])
	})

	t.Run("close releases the fetcher", func(t *testing.T) {
		t.Parallel()

		closed := false
		fetcher := &mock.Fetcher{CloseFn: func() error {
			closed = true
			return nil
		}}

		require.NoError(t, goquery.NewPageLoader(fetcher).Close())
		assert.True(t, closed)
	})
}
