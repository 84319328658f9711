//go:build integration

package gemini_test

import (
	"context"
	"image"
	"image/color"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Integration_GeneratesAndCaptions(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	models, err := gemini.NewProvider(gemini.DefaultModel).Open(ctx, apiKey)
	require.NoError(t, err)

	t.Run("lists images as a JSON array", func(t *testing.T) {
		sampling := mira.DeterministicSampling()
		sampling.MaxOutputTokens = 256

		text, err := models.Text.GenerateText(ctx,
			`Give the src of the img tag of the image in the main body text. Express in json array.

<article><p>Results below.</p><img src="https://example.com/chart.png"></article>`,
			sampling)

		require.NoError(t, err)
		assert.Contains(t, text, "https://example.com/chart.png")
	})

	t.Run("captions an image", func(t *testing.T) {
		session, err := models.Captions.CreateSession(ctx, mira.SessionOptions{
			ExpectedInputs: []string{mira.InputImage},
			OutputLanguage: "en",
		})
		require.NoError(t, err)
		defer session.Close()

		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for x := 0; x < 64; x++ {
			for y := 0; y < 64; y++ {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			}
		}

		reply, err := session.Prompt(ctx, []mira.Message{{
			Text:  "What color is this image? Answer with one word.",
			Image: img,
		}})

		require.NoError(t, err)
		assert.Contains(t, strings.ToLower(reply), "red")
	})
}
