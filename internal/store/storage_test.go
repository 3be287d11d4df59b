package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	var missing []string
	found, err := s.Load(ctx, "nope", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	want := []string{"a", "b", "c"}
	require.NoError(t, s.Save(ctx, "letters", want))

	var got []string
	found, err = s.Load(ctx, "letters", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestFileStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	var missing []int
	found, err := s.Load(ctx, KeyNotifications, &missing)
	require.NoError(t, err)
	assert.False(t, found)

	want := []map[string]any{
		{"id": "1", "read": false},
		{"id": "2", "read": true},
	}
	require.NoError(t, s.Save(ctx, KeyNotifications, want))

	// One file per key, no leftover temp file.
	_, err = os.Stat(filepath.Join(dir, KeyNotifications+".json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, KeyNotifications+".json.tmp"))
	assert.True(t, os.IsNotExist(err))

	var got []map[string]any
	found, err = s.Load(ctx, KeyNotifications, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestFileStorageOverwrites(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, KeyPendingApprovals, []string{"old"}))
	require.NoError(t, s.Save(ctx, KeyPendingApprovals, []string{"new"}))

	var got []string
	found, err := s.Load(ctx, KeyPendingApprovals, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"new"}, got)
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStorage(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	var missing []string
	found, err := s.Load(ctx, "nope", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	want := []map[string]any{{"id": "x", "amount": float64(100000)}}
	require.NoError(t, s.Save(ctx, KeyApprovedApprovals, want))

	var got []map[string]any
	found, err = s.Load(ctx, KeyApprovedApprovals, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	// Upsert replaces the previous value.
	require.NoError(t, s.Save(ctx, KeyApprovedApprovals, []map[string]any{}))
	got = nil
	found, err = s.Load(ctx, KeyApprovedApprovals, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
}
