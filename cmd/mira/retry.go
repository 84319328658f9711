package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mira"
)

// LoadFunc is the signature of a page load.
type LoadFunc func(ctx context.Context, url string) (*mira.Page, error)

// DefaultRetryDelays returns the wait before each retry: one retry after 500ms.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{500 * time.Millisecond}
}

// LoadWithRetryDelays calls load, retrying after each delay while it
// fails. Invalid and missing pages are not retried.
func LoadWithRetryDelays(ctx context.Context, url string, load LoadFunc, logger *slog.Logger, delays []time.Duration) (*mira.Page, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		page, err := load(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 || !retryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if logger != nil {
			logger.Warn("retrying load", "url", url, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	switch mira.ErrorCode(err) {
	case mira.EINVALID, mira.ENOTFOUND:
		return false
	}
	return true
}

// retryLoader retries failed loads.
type retryLoader struct {
	next   mira.PageLoader
	delays []time.Duration
	logger *slog.Logger
}

func (l *retryLoader) Load(ctx context.Context, url string) (*mira.Page, error) {
	return LoadWithRetryDelays(ctx, url, l.next.Load, l.logger, l.delays)
}

func (l *retryLoader) Close() error {
	return l.next.Close()
}
