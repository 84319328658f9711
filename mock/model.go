package mock

import (
	"context"

	"github.com/fwojciec/mira"
)

var (
	_ mira.TextGenerator         = (*TextGenerator)(nil)
	_ mira.CaptionSessionFactory = (*CaptionSessionFactory)(nil)
	_ mira.ImageCaptionSession   = (*ImageCaptionSession)(nil)
	_ mira.ModelProvider         = (*ModelProvider)(nil)
)

// TextGenerator is a mock implementation of mira.TextGenerator.
type TextGenerator struct {
	GenerateTextFn func(ctx context.Context, prompt string, sampling mira.Sampling) (string, error)
}

func (g *TextGenerator) GenerateText(ctx context.Context, prompt string, sampling mira.Sampling) (string, error) {
	return g.GenerateTextFn(ctx, prompt, sampling)
}

// CaptionSessionFactory is a mock implementation of mira.CaptionSessionFactory.
type CaptionSessionFactory struct {
	CreateSessionFn func(ctx context.Context, opts mira.SessionOptions) (mira.ImageCaptionSession, error)
}

func (f *CaptionSessionFactory) CreateSession(ctx context.Context, opts mira.SessionOptions) (mira.ImageCaptionSession, error) {
	return f.CreateSessionFn(ctx, opts)
}

// ImageCaptionSession is a mock implementation of mira.ImageCaptionSession.
// A nil CloseFn makes Close a no-op.
type ImageCaptionSession struct {
	PromptFn func(ctx context.Context, messages []mira.Message) (string, error)
	CloseFn  func() error
}

func (s *ImageCaptionSession) Prompt(ctx context.Context, messages []mira.Message) (string, error) {
	return s.PromptFn(ctx, messages)
}

func (s *ImageCaptionSession) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// ModelProvider is a mock implementation of mira.ModelProvider.
type ModelProvider struct {
	OpenFn func(ctx context.Context, apiKey string) (*mira.Models, error)
}

func (p *ModelProvider) Open(ctx context.Context, apiKey string) (*mira.Models, error) {
	return p.OpenFn(ctx, apiKey)
}
