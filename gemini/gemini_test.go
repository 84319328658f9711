package gemini_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Open(t *testing.T) {
	t.Parallel()

	t.Run("returns EUNAVAILABLE without a key", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.NewProvider("").Open(context.Background(), "")

		require.Error(t, err)
		assert.Equal(t, mira.EUNAVAILABLE, mira.ErrorCode(err))
	})

	t.Run("opens both capabilities with a key", func(t *testing.T) {
		t.Parallel()

		models, err := gemini.NewProvider("").Open(context.Background(), "test-key")

		require.NoError(t, err)
		assert.NotNil(t, models.Text)
		assert.NotNil(t, models.Captions)
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("maps deterministic sampling", func(t *testing.T) {
		t.Parallel()

		sampling := mira.DeterministicSampling()
		sampling.MaxOutputTokens = 512

		config := gemini.BuildConfig(sampling)

		require.NotNil(t, config.Temperature)
		require.NotNil(t, config.TopP)
		require.NotNil(t, config.TopK)
		assert.InDelta(t, 0, *config.Temperature, 0)
		assert.InDelta(t, 0, *config.TopP, 0)
		assert.InDelta(t, 1, *config.TopK, 0)
		assert.Equal(t, int32(512), config.MaxOutputTokens)
	})

	t.Run("leaves unset sampling to the model", func(t *testing.T) {
		t.Parallel()

		config := gemini.BuildConfig(mira.Sampling{})

		assert.Nil(t, config.Temperature)
		assert.Nil(t, config.TopP)
		assert.Nil(t, config.TopK)
		assert.Zero(t, config.MaxOutputTokens)
		assert.Nil(t, config.SystemInstruction)
	})
}

func TestBuildSessionConfig(t *testing.T) {
	t.Parallel()

	t.Run("adds the output language as a system instruction", func(t *testing.T) {
		t.Parallel()

		config, err := gemini.BuildSessionConfig(mira.SessionOptions{
			ExpectedInputs: []string{mira.InputImage},
			OutputLanguage: "en",
		})

		require.NoError(t, err)
		require.NotNil(t, config.SystemInstruction)
		require.Len(t, config.SystemInstruction.Parts, 1)
		assert.Equal(t, "Always respond in English.", config.SystemInstruction.Parts[0].Text)
	})

	t.Run("rejects unknown input kinds", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.BuildSessionConfig(mira.SessionOptions{ExpectedInputs: []string{"audio"}})

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})

	t.Run("rejects malformed languages", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.BuildSessionConfig(mira.SessionOptions{OutputLanguage: "not a language"})

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})
}

func TestCaptionSession_Prompt(t *testing.T) {
	t.Parallel()

	t.Run("rejects images when the session expects text only", func(t *testing.T) {
		t.Parallel()

		f := gemini.NewCaptionSessionFactory(nil, gemini.DefaultModel)
		session, err := f.CreateSession(context.Background(), mira.SessionOptions{ExpectedInputs: []string{mira.InputText}})
		require.NoError(t, err)

		_, err = session.Prompt(context.Background(), []mira.Message{{
			Text:  "describe",
			Image: image.NewRGBA(image.Rect(0, 0, 1, 1)),
		}})

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})

	t.Run("rejects prompts after close", func(t *testing.T) {
		t.Parallel()

		f := gemini.NewCaptionSessionFactory(nil, gemini.DefaultModel)
		session, err := f.CreateSession(context.Background(), mira.SessionOptions{})
		require.NoError(t, err)
		require.NoError(t, session.Close())

		_, err = session.Prompt(context.Background(), []mira.Message{{Text: "hi"}})

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})

	t.Run("rejects empty turns", func(t *testing.T) {
		t.Parallel()

		f := gemini.NewCaptionSessionFactory(nil, gemini.DefaultModel)
		session, err := f.CreateSession(context.Background(), mira.SessionOptions{})
		require.NoError(t, err)

		_, err = session.Prompt(context.Background(), nil)

		assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
	})
}

func TestEncodeImage(t *testing.T) {
	t.Parallel()

	data, err := gemini.EncodeImage(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
}

func TestTextGenerator_GenerateText_RequiresPrompt(t *testing.T) {
	t.Parallel()

	_, err := gemini.NewTextGenerator(nil, gemini.DefaultModel).GenerateText(context.Background(), "", mira.Sampling{})

	require.Error(t, err)
	assert.Equal(t, mira.EINVALID, mira.ErrorCode(err))
}
