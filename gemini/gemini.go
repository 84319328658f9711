// Package gemini implements the model capabilities on Google Gemini.
package gemini

import (
	"context"

	"github.com/fwojciec/mira"
	"google.golang.org/genai"
)

// DefaultModel is the model used for both image listing and captioning.
const DefaultModel = "gemini-2.5-flash-lite"

var _ mira.ModelProvider = (*Provider)(nil)

// Provider opens a Gemini client per run.
type Provider struct {
	// Model overrides DefaultModel when set.
	Model string
}

// NewProvider creates a new Provider for model.
func NewProvider(model string) *Provider {
	return &Provider{Model: model}
}

// Open creates a client bound to apiKey. The client is not cached: each
// run brings its own credential.
// Returns EUNAVAILABLE when apiKey is empty or the client cannot be created.
func (p *Provider) Open(ctx context.Context, apiKey string) (*mira.Models, error) {
	if apiKey == "" {
		return nil, mira.Errorf(mira.EUNAVAILABLE, "gemini API key required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, mira.Errorf(mira.EUNAVAILABLE, "gemini client: %v", err)
	}

	model := p.Model
	if model == "" {
		model = DefaultModel
	}
	return &mira.Models{
		Text:     NewTextGenerator(client, model),
		Captions: NewCaptionSessionFactory(client, model),
	}, nil
}
