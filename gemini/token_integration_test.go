//go:build integration

package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The local tokenizer downloads its vocabulary on first use.
func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter("gemini-2.0-flash")
	require.NoError(t, err)

	article := &mira.Article{
		Title:       "Quarterly results",
		TextContent: "Revenue grew in every region during the third quarter.",
	}

	t.Run("empty document has no tokens", func(t *testing.T) {
		t.Parallel()

		count, err := tc.CountTokens(context.Background(), "")

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("image descriptions add tokens", func(t *testing.T) {
		t.Parallel()

		desc := "A bar chart of revenue by region, highest in Europe at 41 million."
		plain := mira.Assemble(article, nil)
		withImages := mira.Assemble(article, []mira.CaptionedImage{{Locator: "https://example.com/chart.png", Description: &desc}})

		plainCount, err := tc.CountTokens(context.Background(), plain)
		require.NoError(t, err)
		imagesCount, err := tc.CountTokens(context.Background(), withImages)
		require.NoError(t, err)

		assert.Positive(t, plainCount)
		assert.Greater(t, imagesCount, plainCount)
	})
}
