package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/mira"
	mirahttp "github.com/fwojciec/mira/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageFetcher_FetchImage(t *testing.T) {
	t.Parallel()

	t.Run("returns body and content type", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "image/*", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG"))
		}))
		defer server.Close()

		data, contentType, err := mirahttp.NewImageFetcher().FetchImage(context.Background(), server.URL+"/a.png")

		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), data)
		assert.Equal(t, "image/png", contentType)
	})

	t.Run("decodes base64 data urls", func(t *testing.T) {
		t.Parallel()

		data, contentType, err := mirahttp.NewImageFetcher().FetchImage(context.Background(), "data:image/gif;base64,R0lGOA==")

		require.NoError(t, err)
		assert.Equal(t, []byte("GIF8"), data)
		assert.Equal(t, "image/gif", contentType)
	})

	t.Run("decodes percent-encoded data urls", func(t *testing.T) {
		t.Parallel()

		data, contentType, err := mirahttp.NewImageFetcher().FetchImage(context.Background(), "data:image/svg+xml,%3Csvg%2F%3E")

		require.NoError(t, err)
		assert.Equal(t, "<svg/>", string(data))
		assert.Equal(t, "image/svg+xml", contentType)
	})

	t.Run("rejects malformed data urls", func(t *testing.T) {
		t.Parallel()

		_, _, err := mirahttp.NewImageFetcher().FetchImage(context.Background(), "data:image/png;base64")

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		t.Parallel()

		_, _, err := mirahttp.NewImageFetcher().FetchImage(context.Background(), "file:///etc/passwd")

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})

	t.Run("returns ENOTFOUND for missing images", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, _, err := mirahttp.NewImageFetcher().FetchImage(context.Background(), server.URL+"/gone.png")

		assert.Equal(t, mira.ENOTFOUND, mira.ErrorCode(err))
	})

	t.Run("rejects oversized images", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(make([]byte, 100))
		}))
		defer server.Close()

		f := mirahttp.NewImageFetcher(mirahttp.WithMaxImageBytes(10))
		_, _, err := f.FetchImage(context.Background(), server.URL)

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})

	t.Run("waits on the domain limiter", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte("img"))
		}))
		defer server.Close()

		// One request per minute: the second download cannot start before the deadline.
		f := mirahttp.NewImageFetcher(mirahttp.WithDomainLimiter(mirahttp.NewDomainLimiter(1.0/60, 1)))
		_, _, err := f.FetchImage(context.Background(), server.URL+"/1.png")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, _, err = f.FetchImage(ctx, server.URL+"/2.png")

		require.Error(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})
}
