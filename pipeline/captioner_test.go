package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/mock"
	"github.com/fwojciec/mira/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func pngFetcher(t *testing.T) *mock.ImageFetcher {
	t.Helper()
	data := pngBytes(t, 4, 3)
	return &mock.ImageFetcher{
		FetchImageFn: func(_ context.Context, _ string) ([]byte, string, error) {
			return data, "image/png", nil
		},
	}
}

func replyingSessions(reply func() (string, error)) *mock.CaptionSessionFactory {
	return &mock.CaptionSessionFactory{
		CreateSessionFn: func(_ context.Context, _ mira.SessionOptions) (mira.ImageCaptionSession, error) {
			return &mock.ImageCaptionSession{
				PromptFn: func(_ context.Context, _ []mira.Message) (string, error) {
					return reply()
				},
			}, nil
		},
	}
}

func TestCaptioner_Caption(t *testing.T) {
	t.Parallel()

	t.Run("sends the fixed prompt with the decoded image", func(t *testing.T) {
		t.Parallel()

		var gotOpts mira.SessionOptions
		var gotMessages []mira.Message
		closed := false
		c := &pipeline.Captioner{
			Sessions: &mock.CaptionSessionFactory{
				CreateSessionFn: func(_ context.Context, opts mira.SessionOptions) (mira.ImageCaptionSession, error) {
					gotOpts = opts
					return &mock.ImageCaptionSession{
						PromptFn: func(_ context.Context, messages []mira.Message) (string, error) {
							gotMessages = messages
							return "  A bar chart.  ", nil
						},
						CloseFn: func() error {
							closed = true
							return nil
						},
					}, nil
				},
			},
			Images: pngFetcher(t),
		}

		got := c.Caption(context.Background(), "https://x/a.png")

		require.NotNil(t, got)
		assert.Equal(t, "A bar chart.", *got)
		assert.True(t, closed)
		assert.Equal(t, []string{mira.InputImage}, gotOpts.ExpectedInputs)
		assert.Equal(t, "en", gotOpts.OutputLanguage)
		require.NotNil(t, gotOpts.Sampling.Temperature)
		require.NotNil(t, gotOpts.Sampling.TopK)
		assert.InDelta(t, 0, *gotOpts.Sampling.Temperature, 0)
		assert.InDelta(t, 1, *gotOpts.Sampling.TopK, 0)
		require.Len(t, gotMessages, 1)
		assert.Equal(t, pipeline.CaptionPrompt, gotMessages[0].Text)
		require.NotNil(t, gotMessages[0].Image)
		assert.Equal(t, image.Rect(0, 0, 4, 3), gotMessages[0].Image.Bounds())
	})

	t.Run("returns nil when the session cannot be created", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Captioner{
			Sessions: &mock.CaptionSessionFactory{
				CreateSessionFn: func(_ context.Context, _ mira.SessionOptions) (mira.ImageCaptionSession, error) {
					return nil, errors.New("unavailable")
				},
			},
			Images: pngFetcher(t),
		}

		assert.Nil(t, c.Caption(context.Background(), "https://x/a.png"))
	})

	t.Run("returns nil when the download fails", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Captioner{
			Sessions: replyingSessions(func() (string, error) { return "desc", nil }),
			Images: &mock.ImageFetcher{
				FetchImageFn: func(_ context.Context, _ string) ([]byte, string, error) {
					return nil, "", errors.New("connection reset")
				},
			},
		}

		assert.Nil(t, c.Caption(context.Background(), "https://x/a.png"))
	})

	t.Run("returns nil when the bytes are not an image", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Captioner{
			Sessions: replyingSessions(func() (string, error) { return "desc", nil }),
			Images: &mock.ImageFetcher{
				FetchImageFn: func(_ context.Context, _ string) ([]byte, string, error) {
					return []byte("<html>not found</html>"), "text/html", nil
				},
			},
		}

		assert.Nil(t, c.Caption(context.Background(), "https://x/a.png"))
	})

	t.Run("returns nil for an empty reply", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Captioner{
			Sessions: replyingSessions(func() (string, error) { return " \n", nil }),
			Images:   pngFetcher(t),
		}

		assert.Nil(t, c.Caption(context.Background(), "https://x/a.png"))
	})

	t.Run("returns nil when cancelled during the prompt", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		c := &pipeline.Captioner{
			Sessions: replyingSessions(func() (string, error) {
				cancel()
				return "late description", nil
			}),
			Images: pngFetcher(t),
		}

		assert.Nil(t, c.Caption(ctx, "https://x/a.png"))
	})
}

func TestCaptioner_CaptionAll(t *testing.T) {
	t.Parallel()

	t.Run("keeps candidate order", func(t *testing.T) {
		t.Parallel()

		c := &pipeline.Captioner{
			Sessions: replyingSessions(func() (string, error) { return "desc", nil }),
			Images:   pngFetcher(t),
		}

		got := c.CaptionAll(context.Background(), []mira.ImageCandidate{
			{Locator: "https://x/1.png"},
			{Locator: "https://x/2.png"},
			{Locator: "https://x/3.png"},
		})

		require.Len(t, got, 3)
		assert.Equal(t, "https://x/1.png", got[0].Locator)
		assert.Equal(t, "https://x/2.png", got[1].Locator)
		assert.Equal(t, "https://x/3.png", got[2].Locator)
		for _, img := range got {
			assert.NotNil(t, img.Description)
		}
	})

	t.Run("failed images have no description", func(t *testing.T) {
		t.Parallel()

		data := pngBytes(t, 2, 2)
		var mu sync.Mutex
		fetched := make(map[string]int)
		c := &pipeline.Captioner{
			Sessions: replyingSessions(func() (string, error) { return "desc", nil }),
			Images: &mock.ImageFetcher{
				FetchImageFn: func(_ context.Context, url string) ([]byte, string, error) {
					mu.Lock()
					fetched[url]++
					mu.Unlock()
					if url == "https://x/bad.png" {
						return nil, "", errors.New("404")
					}
					return data, "image/png", nil
				},
			},
		}

		got := c.CaptionAll(context.Background(), []mira.ImageCandidate{
			{Locator: "https://x/good.png"},
			{Locator: "https://x/bad.png"},
		})

		require.Len(t, got, 2)
		require.NotNil(t, got[0].Description)
		assert.Equal(t, "desc", *got[0].Description)
		assert.Nil(t, got[1].Description)
		assert.Equal(t, 1, fetched["https://x/good.png"])
		assert.Equal(t, 1, fetched["https://x/bad.png"])
	})
}
