package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fwojciec/mira/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("migrates an empty database", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(":memory:")
		require.NoError(t, db.Open())
		defer db.Close()

		version, err := db.SchemaVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, version)

		var count int
		err = db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM page_content").Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("reopening keeps saved slots", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "mira.db")

		db := sqlite.NewDB(path)
		require.NoError(t, db.Open())
		require.NoError(t, sqlite.NewContentStore(db).Save(ctx, "tab-1", "kept"))
		require.NoError(t, db.Close())

		db = sqlite.NewDB(path)
		require.NoError(t, db.Open())
		defer db.Close()

		content, err := sqlite.NewContentStore(db).Find(ctx, "tab-1")
		require.NoError(t, err)
		assert.Equal(t, "kept", content)
	})

	t.Run("uses WAL for file databases", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(filepath.Join(t.TempDir(), "mira.db"))
		require.NoError(t, db.Open())
		defer db.Close()

		var mode string
		err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode)
		require.NoError(t, err)
		assert.Equal(t, "wal", mode)
	})

	t.Run("returns error for missing directory", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(filepath.Join(t.TempDir(), "missing", "mira.db"))

		require.Error(t, db.Open())
	})
}
