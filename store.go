package mira

import "context"

// ContentStore is the page-scoped slot holding the last assembled document.
type ContentStore interface {
	// Clear empties the slot for pageID. Clearing an empty slot is not an error.
	Clear(ctx context.Context, pageID string) error

	// Save replaces the slot content for pageID.
	Save(ctx context.Context, pageID, content string) error

	// Find returns the slot content for pageID.
	// Returns ENOTFOUND if the slot is empty.
	Find(ctx context.Context, pageID string) (string, error)
}
