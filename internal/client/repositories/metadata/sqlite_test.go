package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "accessToken", "a"))

	v, ok, err := r.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestGet_MissingKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, ok, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestGet_EmptyValueIsPresent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "refreshToken", ""))
	_, ok, err := r.Get(ctx, "refreshToken")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSet_Upserts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", "old"))
	require.NoError(t, r.Set(ctx, "k", "new"))

	v, _, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestDelete_SeveralKeys_Idempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", "1"))
	require.NoError(t, r.Set(ctx, "b", "2"))
	require.NoError(t, r.Set(ctx, "keep", "3"))

	require.NoError(t, r.Delete(ctx, "a", "b", "never-set"))
	require.NoError(t, r.Delete(ctx, "a"))
	require.NoError(t, r.Delete(ctx))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"keep": "3"}, m)
}

func TestClear_RemovesAllKeys(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", "1"))
	require.NoError(t, r.Set(ctx, "b", "2"))
	require.NoError(t, r.Clear(ctx))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, _, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get metadata[k]")

	assert.ErrorContains(t, r.Set(ctx, "k", "v"), "failed to set metadata[k]")
	assert.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata")
	assert.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")

	_, err = r.List(ctx)
	assert.ErrorContains(t, err, "failed to list metadata")
}
