// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestSaveAndLatestSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	records := []*types.Record{sampleRecord("Smith2020"), sampleRecord("Doe2021")}

	saved, err := s.SaveSnapshot(ctx, "after import", records)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "after import", saved.Label)
	assert.Equal(t, 2, saved.RecordCount)

	snap, loaded, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, snap.ID)
	assert.True(t, saved.TakenAt.Equal(snap.TakenAt), "taken_at lost precision: %v vs %v", saved.TakenAt, snap.TakenAt)
	require.Len(t, loaded, 2)
	assert.Equal(t, records[0].ID, loaded[0].ID)
	assert.Equal(t, records[0].Fields, loaded[0].Fields)
	assert.Equal(t, records[0].Origins, loaded[0].Origins)
	require.Contains(t, loaded[0].Provenance, "title")
	assert.Equal(t, "manual", loaded[0].Provenance["title"].Source)
}

func TestLatestSnapshotEmptyStore(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.LatestSnapshot(context.Background())
	require.ErrorIs(t, err, ErrNoSnapshots)
}

func TestLatestSnapshotPicksNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSnapshot(ctx, "first", []*types.Record{sampleRecord("Smith2020")})
	require.NoError(t, err)
	second, err := s.SaveSnapshot(ctx, "second", []*types.Record{
		sampleRecord("Smith2020"), sampleRecord("Doe2021"),
	})
	require.NoError(t, err)

	snap, records, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, snap.ID)
	assert.Len(t, records, 2)
}

func TestLoadSnapshotByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveSnapshot(ctx, "first", []*types.Record{sampleRecord("Smith2020")})
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "second", nil)
	require.NoError(t, err)

	snap, records, err := s.LoadSnapshot(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", snap.Label)
	require.Len(t, records, 1)
	assert.Equal(t, "Smith2020", records[0].ID)

	_, _, err = s.LoadSnapshot(ctx, "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot no-such-id not found")
}

func TestListSnapshotsOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, label := range []string{"one", "two", "three"} {
		_, err := s.SaveSnapshot(ctx, label, nil)
		require.NoError(t, err)
	}

	snaps, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "one", snaps[0].Label)
	assert.Equal(t, "three", snaps[2].Label)
}

func TestSnapshotPreservesRecordOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Deliberately unsorted; snapshots keep the collection's order.
	records := []*types.Record{sampleRecord("Zobel2021"), sampleRecord("Abel2019")}
	_, err := s.SaveSnapshot(ctx, "", records)
	require.NoError(t, err)

	_, loaded, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Zobel2021", loaded[0].ID)
	assert.Equal(t, "Abel2019", loaded[1].ID)
}

func TestOverrideLogRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := types.StatusOverride{
		RecordID:  "Smith2020",
		From:      types.StatusMdImported,
		To:        types.StatusRevIncluded,
		Operation: "set-status",
		Reason:    "screened on paper",
		CreatedAt: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.LogOverride(ctx, first))
	require.NoError(t, s.LogOverride(ctx, types.StatusOverride{
		RecordID: "Doe2021",
		From:     types.StatusMdProcessed,
		To:       types.StatusMdImported,
		Reason:   "re-prepare",
	}))

	overrides, err := s.Overrides(ctx)
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.Equal(t, first, overrides[0])
	// A zero CreatedAt is stamped at log time.
	assert.False(t, overrides[1].CreatedAt.IsZero())
	assert.Equal(t, "Doe2021", overrides[1].RecordID)
}

func TestRenameLogRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LogRename(ctx, types.IDRename{
		OldID:  "Smith2020",
		NewID:  "Smith2020a",
		Reason: "disambiguation",
	}))

	renames, err := s.Renames(ctx)
	require.NoError(t, err)
	require.Len(t, renames, 1)
	assert.Equal(t, "Smith2020", renames[0].OldID)
	assert.Equal(t, "Smith2020a", renames[0].NewID)
	assert.Equal(t, "disambiguation", renames[0].Reason)
	assert.False(t, renames[0].CreatedAt.IsZero())
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveSnapshot(context.Background(), "", []*types.Record{sampleRecord("Smith2020")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening an existing database must not disturb its contents.
	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	snaps, err := s.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

// --- test helpers ---

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
