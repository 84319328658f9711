//go:build integration

package rod_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ mira.PageLoader = (*rod.Loader)(nil)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240))))
	img := buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!doctype html><html><head><title>Post</title></head><body>
<article><p>First paragraph.</p><img src="/chart.png" width="160"></article>
<script>document.querySelector("article").insertAdjacentHTML("beforeend", "<p>Rendered by script.</p>")</script>
</body></html>`))
	})
	mux.HandleFunc("/chart.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	server := testServer(t)

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	loader := rod.NewLoader(manager, rod.WithTimeout(20*time.Second))
	defer loader.Close()

	t.Run("captures rendered text and image sizes", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		page, err := loader.Load(ctx, server.URL+"/post")
		require.NoError(t, err)

		assert.Equal(t, "Post", page.Title)
		assert.Contains(t, page.BodyText, "Rendered by script.")
		assert.Contains(t, page.HTML, "Rendered by script.")

		size, ok := page.Images[server.URL+"/chart.png"]
		require.True(t, ok, "image missing from capture: %v", page.Images)
		assert.Equal(t, 320, size.NaturalWidth)
		assert.Equal(t, 240, size.NaturalHeight)
		assert.Equal(t, 160, size.Width)
	})

	t.Run("loads with stealth enabled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stealthy := rod.NewLoader(manager, rod.WithStealth(true))
		page, err := stealthy.Load(ctx, server.URL+"/post")
		require.NoError(t, err)
		assert.Equal(t, "Post", page.Title)
	})

	t.Run("honors a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := loader.Load(ctx, server.URL+"/post")
		assert.Error(t, err)
	})
}
