package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2025, 7, 18, 17, 0, 0, 0, time.UTC)
	recs := sampleRecords(base)
	// write out of order, Query sorts
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, store.Append(context.Background(), recs[i]))
	}
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[2].ID)

	out, err = store.Query(context.Background(), Query{End: base.Add(90 * time.Minute), FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)
}

func TestRotatingJSONLStoreSkipsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))
	store, err := NewRotatingJSONLStore(path, 1, 1, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Append(context.Background(), Record{ID: "x", Timestamp: time.Now()}))
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, c := range []Config{
		{Backend: "jsonl", Path: filepath.Join(dir, "h.jsonl")},
		{Backend: "sqlite", Path: filepath.Join(dir, "h.db")},
		{Backend: "none"},
	} {
		c.SetDefaults()
		require.NoError(t, c.Validate())
		s, err := Open(c)
		require.NoError(t, err, c.Backend)
		require.NoError(t, s.Close())
	}
	bad := Config{Backend: "csv"}
	assert.Error(t, bad.Validate())
	_, err := Open(bad)
	assert.Error(t, err)
}
