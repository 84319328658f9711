// Package slog provides logging decorators for mira services.
package slog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/mira"
)

var (
	_ mira.Fetcher      = (*LoggingFetcher)(nil)
	_ mira.ImageFetcher = (*LoggingImageFetcher)(nil)
)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   mira.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next mira.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// LoggingImageFetcher wraps an ImageFetcher with debug logging.
type LoggingImageFetcher struct {
	next   mira.ImageFetcher
	logger *slog.Logger
}

// NewLoggingImageFetcher creates a new LoggingImageFetcher.
func NewLoggingImageFetcher(next mira.ImageFetcher, logger *slog.Logger) *LoggingImageFetcher {
	return &LoggingImageFetcher{next: next, logger: logger}
}

// FetchImage logs the download and delegates to the wrapped fetcher.
// data: URLs are logged by scheme only.
func (f *LoggingImageFetcher) FetchImage(ctx context.Context, url string) (data []byte, contentType string, err error) {
	defer func(begin time.Time) {
		f.logger.Debug("fetch image",
			"url", shortURL(url),
			"bytes", len(data),
			"content_type", contentType,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.FetchImage(ctx, url)
}

func shortURL(url string) string {
	const maxChars = 120
	if strings.HasPrefix(url, "data:") {
		return "data:…"
	}
	if len(url) > maxChars {
		return url[:maxChars] + "…"
	}
	return url
}
