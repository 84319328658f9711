package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mira"
)

var _ mira.PageLoader = (*LoggingLoader)(nil)

// LoggingLoader wraps a PageLoader with logging.
type LoggingLoader struct {
	next   mira.PageLoader
	logger *slog.Logger
}

// NewLoggingLoader creates a new LoggingLoader.
func NewLoggingLoader(next mira.PageLoader, logger *slog.Logger) *LoggingLoader {
	return &LoggingLoader{next: next, logger: logger}
}

// Load logs the page load with its size and image count.
func (l *LoggingLoader) Load(ctx context.Context, pageURL string) (page *mira.Page, err error) {
	defer func(begin time.Time) {
		var bytes, images int
		if page != nil {
			bytes = len(page.HTML)
			images = len(page.Images)
		}
		l.logger.Info("load",
			"url", pageURL,
			"bytes", bytes,
			"images", images,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.Load(ctx, pageURL)
}

// Close delegates to the wrapped loader.
func (l *LoggingLoader) Close() error {
	return l.next.Close()
}
