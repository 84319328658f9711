package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mira"
)

var _ mira.ContentStore = (*LoggingContentStore)(nil)

// LoggingContentStore wraps a ContentStore with debug logging.
type LoggingContentStore struct {
	next   mira.ContentStore
	logger *slog.Logger
}

// NewLoggingContentStore creates a new LoggingContentStore.
func NewLoggingContentStore(next mira.ContentStore, logger *slog.Logger) *LoggingContentStore {
	return &LoggingContentStore{next: next, logger: logger}
}

func (s *LoggingContentStore) Clear(ctx context.Context, pageID string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("clear slot", "page", pageID, "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Clear(ctx, pageID)
}

func (s *LoggingContentStore) Save(ctx context.Context, pageID, content string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("save slot", "page", pageID, "bytes", len(content), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Save(ctx, pageID, content)
}

func (s *LoggingContentStore) Find(ctx context.Context, pageID string) (content string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find slot", "page", pageID, "bytes", len(content), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Find(ctx, pageID)
}
