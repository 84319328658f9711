package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mira"
)

var (
	_ mira.ModelProvider         = (*LoggingModelProvider)(nil)
	_ mira.TextGenerator         = (*LoggingTextGenerator)(nil)
	_ mira.CaptionSessionFactory = (*LoggingCaptionSessionFactory)(nil)
	_ mira.ImageCaptionSession   = (*loggingCaptionSession)(nil)
)

// LoggingModelProvider wraps a ModelProvider so every opened capability logs.
type LoggingModelProvider struct {
	next   mira.ModelProvider
	logger *slog.Logger
}

// NewLoggingModelProvider creates a new LoggingModelProvider.
func NewLoggingModelProvider(next mira.ModelProvider, logger *slog.Logger) *LoggingModelProvider {
	return &LoggingModelProvider{next: next, logger: logger}
}

// Open delegates to the wrapped provider and decorates what it returns.
// The credential is never logged.
func (p *LoggingModelProvider) Open(ctx context.Context, apiKey string) (*mira.Models, error) {
	models, err := p.next.Open(ctx, apiKey)
	if err != nil {
		p.logger.Warn("open models", "err", err)
		return nil, err
	}
	decorated := &mira.Models{}
	if models.Text != nil {
		decorated.Text = NewLoggingTextGenerator(models.Text, p.logger)
	}
	if models.Captions != nil {
		decorated.Captions = NewLoggingCaptionSessionFactory(models.Captions, p.logger)
	}
	return decorated, nil
}

// LoggingTextGenerator wraps a TextGenerator with logging.
type LoggingTextGenerator struct {
	next   mira.TextGenerator
	logger *slog.Logger
}

// NewLoggingTextGenerator creates a new LoggingTextGenerator.
func NewLoggingTextGenerator(next mira.TextGenerator, logger *slog.Logger) *LoggingTextGenerator {
	return &LoggingTextGenerator{next: next, logger: logger}
}

// GenerateText logs prompt and reply sizes.
func (g *LoggingTextGenerator) GenerateText(ctx context.Context, prompt string, sampling mira.Sampling) (text string, err error) {
	defer func(begin time.Time) {
		g.logger.Info("generate text",
			"prompt_chars", len(prompt),
			"reply_chars", len(text),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return g.next.GenerateText(ctx, prompt, sampling)
}

// LoggingCaptionSessionFactory wraps a CaptionSessionFactory so sessions log their prompts.
type LoggingCaptionSessionFactory struct {
	next   mira.CaptionSessionFactory
	logger *slog.Logger
}

// NewLoggingCaptionSessionFactory creates a new LoggingCaptionSessionFactory.
func NewLoggingCaptionSessionFactory(next mira.CaptionSessionFactory, logger *slog.Logger) *LoggingCaptionSessionFactory {
	return &LoggingCaptionSessionFactory{next: next, logger: logger}
}

// CreateSession delegates to the wrapped factory.
func (f *LoggingCaptionSessionFactory) CreateSession(ctx context.Context, opts mira.SessionOptions) (mira.ImageCaptionSession, error) {
	session, err := f.next.CreateSession(ctx, opts)
	if err != nil {
		f.logger.Warn("create caption session", "err", err)
		return nil, err
	}
	return &loggingCaptionSession{next: session, logger: f.logger}, nil
}

type loggingCaptionSession struct {
	next   mira.ImageCaptionSession
	logger *slog.Logger
}

func (s *loggingCaptionSession) Prompt(ctx context.Context, messages []mira.Message) (reply string, err error) {
	defer func(begin time.Time) {
		images := 0
		for _, m := range messages {
			if m.Image != nil {
				images++
			}
		}
		s.logger.Info("caption",
			"images", images,
			"reply_chars", len(reply),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Prompt(ctx, messages)
}

func (s *loggingCaptionSession) Close() error {
	return s.next.Close()
}
