package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreSaveAndLoad(t *testing.T) {
	store := newTestSQLiteStore(t)

	want := sampleResult("pipe-sql-1")
	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background(), "pipe-sql-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStoreLoadMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreWriteOnce(t *testing.T) {
	store := newTestSQLiteStore(t)

	first := sampleResult("pipe-dup")
	require.NoError(t, store.Save(context.Background(), first))

	// A second save with the same pipeline ID is a no-op, not an error.
	second := sampleResult("pipe-dup")
	second.Classification.IsMalicious = false
	require.NoError(t, store.Save(context.Background(), second))

	got, err := store.Load(context.Background(), "pipe-dup")
	require.NoError(t, err)
	assert.True(t, got.Classification.IsMalicious)
}

func TestSQLiteStoreCountByVerdict(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	malicious := sampleResult("pipe-m1")
	require.NoError(t, store.Save(ctx, malicious))

	normal := sampleResult("pipe-n1")
	normal.Classification.IsMalicious = false
	require.NoError(t, store.Save(ctx, normal))

	normal2 := sampleResult("pipe-n2")
	normal2.Classification.IsMalicious = false
	require.NoError(t, store.Save(ctx, normal2))

	maliciousCount, normalCount, err := store.CountByVerdict(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, maliciousCount)
	assert.Equal(t, 2, normalCount)
}

func TestSQLiteStoreReopenSeesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleResult("pipe-durable")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(context.Background(), "pipe-durable")
	require.NoError(t, err)
	assert.Equal(t, "pipe-durable", got.PipelineID)
}
