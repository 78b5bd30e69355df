package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func storedSession(id string) *model.ImportSession {
	now := time.Now()
	return &model.ImportSession{
		ID:        id,
		TenantID:  "tenant-a",
		UserID:    "user-1",
		FileName:  "job.smlx",
		Result:    sampleResult(),
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, storedSession("s1")))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", got.TenantID)
	assert.Equal(t, 4, got.Result.TotalElementCount)
	require.Len(t, got.Result.Assemblies, 1)
	assert.Equal(t, "FRAME-A1", got.Result.Assemblies[0].Mark)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestSQLiteStoreUpdate(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, storedSession("s1")))

	updated, err := store.Update(ctx, "s1", func(s *model.ImportSession) error {
		applyMappings(s.Result, &model.MappingRequest{AutoGenerateRemaining: true})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Result.UnidentifiedCount)

	// The update persisted.
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Result.UnidentifiedCount)
	assert.Equal(t, 4, got.Result.IdentifiedCount)
}

func TestSQLiteStoreUpdateRollsBackOnError(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, storedSession("s1")))

	_, err := store.Update(ctx, "s1", func(s *model.ImportSession) error {
		s.Result.LooseParts[0].Identified = true
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.Result.LooseParts[0].Identified)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, storedSession("s1")))

	store.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	_, err := store.Get(ctx, "s1")
	require.ErrorIs(t, err, common.ErrSessionNotFound)

	err = store.Remove(ctx, "s1")
	require.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestSQLiteStoreRemove(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, storedSession("s1")))
	require.NoError(t, store.Remove(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	require.ErrorIs(t, err, common.ErrSessionNotFound)

	err = store.Remove(ctx, "s1")
	require.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestSQLiteStorePurgesExpiredOnCreate(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	expired := storedSession("old")
	expired.CreatedAt = time.Now().Add(-2 * time.Hour)
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Create(ctx, expired))

	require.NoError(t, store.Create(ctx, storedSession("fresh")))

	var count int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM import_sessions").Scan(&count))
	assert.Equal(t, 1, count)
}
