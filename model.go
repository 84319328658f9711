package mira

import (
	"context"
	"image"
)

// Sampling configures how a model picks output tokens.
// Nil fields leave the model default in place.
type Sampling struct {
	Temperature     *float32
	TopP            *float32
	TopK            *float32
	MaxOutputTokens int32
}

// DeterministicSampling pins the model to its most likely token.
func DeterministicSampling() Sampling {
	temperature, topP, topK := float32(0), float32(0), float32(1)
	return Sampling{
		Temperature: &temperature,
		TopP:        &topP,
		TopK:        &topK,
	}
}

// TextGenerator produces text from a text prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, sampling Sampling) (string, error)
}

// Input kinds a caption session can be asked to accept.
const (
	InputText  = "text"
	InputImage = "image"
)

// SessionOptions configures a caption session.
type SessionOptions struct {
	Sampling       Sampling
	ExpectedInputs []string
	OutputLanguage string
}

// Message is one user turn sent to a caption session.
// Image is optional.
type Message struct {
	Text  string
	Image image.Image
}

// ImageCaptionSession is a multimodal conversation with a model.
type ImageCaptionSession interface {
	// Prompt sends messages and returns the model's reply.
	Prompt(ctx context.Context, messages []Message) (string, error)

	// Close releases the session.
	Close() error
}

// CaptionSessionFactory creates caption sessions.
type CaptionSessionFactory interface {
	CreateSession(ctx context.Context, opts SessionOptions) (ImageCaptionSession, error)
}

// Models are the remote capabilities available to a single run.
// Either field may be nil when the capability is unavailable.
type Models struct {
	Text     TextGenerator
	Captions CaptionSessionFactory
}

// ModelProvider opens model clients for one run using the run's credential.
// Implementations hold no credential state across calls.
type ModelProvider interface {
	Open(ctx context.Context, apiKey string) (*Models, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
