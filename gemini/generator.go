package gemini

import (
	"context"

	"github.com/fwojciec/mira"
	"google.golang.org/genai"
)

var _ mira.TextGenerator = (*TextGenerator)(nil)

// TextGenerator implements mira.TextGenerator using Google Gemini.
type TextGenerator struct {
	client *genai.Client
	model  string
}

// NewTextGenerator creates a new TextGenerator.
func NewTextGenerator(client *genai.Client, model string) *TextGenerator {
	return &TextGenerator{client: client, model: model}
}

// GenerateText sends prompt as a single user turn and returns the reply text.
func (g *TextGenerator) GenerateText(ctx context.Context, prompt string, sampling mira.Sampling) (string, error) {
	if prompt == "" {
		return "", mira.Errorf(mira.EINVALID, "prompt required")
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, "user")},
		BuildConfig(sampling),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", mira.Errorf(mira.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig maps sampling settings onto a GenerateContentConfig.
// Unset settings are left to the model defaults.
func BuildConfig(sampling mira.Sampling) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     sampling.Temperature,
		TopP:            sampling.TopP,
		TopK:            sampling.TopK,
		MaxOutputTokens: sampling.MaxOutputTokens,
	}
}
