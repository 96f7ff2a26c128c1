package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertAgent_InsertThenUpdate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	agent := &core.Agent{
		MoltbookID:    "mb-a1",
		Name:          "crab_mentality",
		Description:   "a very serious agent",
		Karma:         10,
		FollowerCount: 3,
		CreatedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	id1, inserted, err := store.UpsertAgent(ctx, agent)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second observation with drifted counts overwrites, same row.
	agent.Karma = 42
	agent.Name = "crab_mentality_v2"
	id2, inserted, err := store.UpsertAgent(ctx, agent)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id1, id2)

	stored, err := store.GetAgentByMoltbookID(ctx, "mb-a1")
	require.NoError(t, err)
	assert.Equal(t, 42, stored.Karma)
	assert.Equal(t, "crab_mentality_v2", stored.Name)
	assert.False(t, stored.LastSeenAt.IsZero(), "re-ingestion must touch last_seen_at")

	count, err := store.CountAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnsureAgent_AtomicUpsert(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id1, err := store.EnsureAgent(ctx, "mb-a2", "lobster")
	require.NoError(t, err)

	// Same external id from a second post by the same new author: must
	// resolve to an update of the same row, not a uniqueness violation.
	id2, err := store.EnsureAgent(ctx, "mb-a2", "lobster_renamed")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	stored, err := store.GetAgentByMoltbookID(ctx, "mb-a2")
	require.NoError(t, err)
	assert.Equal(t, "lobster_renamed", stored.Name)

	count, err := store.CountAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEnsureAgent_DoesNotClobberFullRecord(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	full := &core.Agent{MoltbookID: "mb-a3", Name: "prawn", Karma: 99, FollowerCount: 7}
	_, _, err := store.UpsertAgent(ctx, full)
	require.NoError(t, err)

	_, err = store.EnsureAgent(ctx, "mb-a3", "prawn")
	require.NoError(t, err)

	stored, err := store.GetAgentByMoltbookID(ctx, "mb-a3")
	require.NoError(t, err)
	assert.Equal(t, 99, stored.Karma, "ensure must only set name and last_seen_at on conflict")
}

func TestGetAgentByMoltbookID_NotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetAgentByMoltbookID(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertAgent_Invalid(t *testing.T) {
	store := setupStore(t)
	_, _, err := store.UpsertAgent(context.Background(), &core.Agent{Name: "no-external-id"})
	assert.ErrorIs(t, err, core.ErrEmptyMoltbookID)
}
