package mock

import (
	"context"

	"github.com/fwojciec/mira"
)

// Compile-time interface verification.
var (
	_ mira.PageLoader  = (*PageLoader)(nil)
	_ mira.Sanitizer   = (*Sanitizer)(nil)
	_ mira.ImageRanker = (*ImageRanker)(nil)
)

// PageLoader is a mock implementation of mira.PageLoader.
type PageLoader struct {
	LoadFn  func(ctx context.Context, pageURL string) (*mira.Page, error)
	CloseFn func() error
}

func (l *PageLoader) Load(ctx context.Context, pageURL string) (*mira.Page, error) {
	return l.LoadFn(ctx, pageURL)
}

func (l *PageLoader) Close() error {
	return l.CloseFn()
}

// Sanitizer is a mock implementation of mira.Sanitizer.
type Sanitizer struct {
	SanitizeFn func(html string) (*mira.Snapshot, error)
}

func (s *Sanitizer) Sanitize(html string) (*mira.Snapshot, error) {
	return s.SanitizeFn(html)
}

// ImageRanker is a mock implementation of mira.ImageRanker.
type ImageRanker struct {
	RankFn func(article *mira.Article, page *mira.Page) ([]mira.ImageCandidate, error)
}

func (r *ImageRanker) Rank(article *mira.Article, page *mira.Page) ([]mira.ImageCandidate, error) {
	return r.RankFn(article, page)
}
