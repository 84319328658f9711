package mock

import (
	"context"

	"github.com/fwojciec/mira"
)

var _ mira.ContentStore = (*ContentStore)(nil)

// ContentStore is a mock implementation of mira.ContentStore.
type ContentStore struct {
	ClearFn func(ctx context.Context, pageID string) error
	SaveFn  func(ctx context.Context, pageID, content string) error
	FindFn  func(ctx context.Context, pageID string) (string, error)
}

func (s *ContentStore) Clear(ctx context.Context, pageID string) error {
	return s.ClearFn(ctx, pageID)
}

func (s *ContentStore) Save(ctx context.Context, pageID, content string) error {
	return s.SaveFn(ctx, pageID, content)
}

func (s *ContentStore) Find(ctx context.Context, pageID string) (string, error) {
	return s.FindFn(ctx, pageID)
}
