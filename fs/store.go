// Package fs stores page content slots as plain text files.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/mira"
)

// Ensure ContentStore implements mira.ContentStore at compile time.
var _ mira.ContentStore = (*ContentStore)(nil)

// ContentStore keeps one file per page under a base directory.
// Saves are atomic: readers see the previous document or the new one,
// never a partial write.
type ContentStore struct {
	baseDir string

	mu sync.Mutex
}

// NewContentStore creates a new ContentStore rooted at baseDir.
// The directory is created on first save.
func NewContentStore(baseDir string) *ContentStore {
	return &ContentStore{baseDir: baseDir}
}

// SlotPath returns the file holding the slot for pageID.
// Page IDs are escaped, so URLs are valid IDs.
func (s *ContentStore) SlotPath(pageID string) string {
	return filepath.Join(s.baseDir, url.PathEscape(pageID)+".txt")
}

// Clear empties the slot for pageID.
func (s *ContentStore) Clear(_ context.Context, pageID string) error {
	if pageID == "" {
		return mira.Errorf(mira.EINVALID, "page ID required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.SlotPath(pageID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Save replaces the slot content for pageID.
func (s *ContentStore) Save(_ context.Context, pageID, content string) error {
	if pageID == "" {
		return mira.Errorf(mira.EINVALID, "page ID required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	return WriteFileAtomic(s.SlotPath(pageID), []byte(content))
}

// Find returns the slot content for pageID.
// Returns ENOTFOUND if the slot is empty.
func (s *ContentStore) Find(_ context.Context, pageID string) (string, error) {
	data, err := os.ReadFile(s.SlotPath(pageID))
	if errors.Is(err, fs.ErrNotExist) {
		return "", mira.Errorf(mira.ENOTFOUND, "no content for page %q", pageID)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
