package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/mira"
	"github.com/google/uuid"
)

var _ mira.ContentStore = (*ContentStore)(nil)

// Entry is a stored slot with its bookkeeping.
type Entry struct {
	PageID      string
	Revision    string
	Content     string
	ContentHash string
	SavedAt     time.Time
}

// ContentStore implements mira.ContentStore using SQLite.
// Every save gets a new revision id.
type ContentStore struct {
	db *DB
}

// NewContentStore creates a new ContentStore.
func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

// Clear empties the slot for pageID.
func (s *ContentStore) Clear(ctx context.Context, pageID string) error {
	if pageID == "" {
		return mira.Errorf(mira.EINVALID, "page ID required")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM page_content WHERE page_id = ?`, pageID)
	return err
}

// Save replaces the slot content for pageID.
func (s *ContentStore) Save(ctx context.Context, pageID, content string) error {
	if pageID == "" {
		return mira.Errorf(mira.EINVALID, "page ID required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO page_content (page_id, revision, content, content_hash, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			revision = excluded.revision,
			content = excluded.content,
			content_hash = excluded.content_hash,
			saved_at = excluded.saved_at
	`, pageID, uuid.NewString(), content, hashContent(content), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Find returns the slot content for pageID.
// Returns ENOTFOUND if the slot is empty.
func (s *ContentStore) Find(ctx context.Context, pageID string) (string, error) {
	e, err := s.FindEntry(ctx, pageID)
	if err != nil {
		return "", err
	}
	return e.Content, nil
}

// FindEntry returns the slot for pageID with its bookkeeping.
// Returns ENOTFOUND if the slot is empty.
func (s *ContentStore) FindEntry(ctx context.Context, pageID string) (*Entry, error) {
	var e Entry
	var savedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT page_id, revision, content, content_hash, saved_at
		FROM page_content
		WHERE page_id = ?
	`, pageID).Scan(&e.PageID, &e.Revision, &e.Content, &e.ContentHash, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mira.Errorf(mira.ENOTFOUND, "no content for page %q", pageID)
	}
	if err != nil {
		return nil, err
	}

	e.SavedAt, err = parseRFC3339(savedAt, "saved_at")
	if err != nil {
		return nil, err
	}
	return &e, nil
}
