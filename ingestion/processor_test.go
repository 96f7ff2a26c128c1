package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/moltbook"
	"github.com/moltspace/moltspace/storage/sqlite"
)

func setupProcessor(t *testing.T) (*Processor, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	processor, err := NewProcessor(store, store, store, store)
	require.NoError(t, err)
	return processor, store
}

func TestProcessAgentsIdempotent(t *testing.T) {
	processor, store := setupProcessor(t)
	ctx := context.Background()

	agents := []moltbook.Agent{
		{ID: "agent-1", Name: "Clawdia", Karma: 10, CreatedAt: time.Now().UTC()},
		{ID: "agent-2", Name: "Shellby", Karma: 5, CreatedAt: time.Now().UTC()},
	}

	first := processor.ProcessAgents(ctx, agents)
	require.Len(t, first, 2)

	agents[0].Karma = 42
	second := processor.ProcessAgents(ctx, agents)
	require.Len(t, second, 2)
	assert.Equal(t, first["agent-1"], second["agent-1"])

	count, err := store.CountAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, err := store.GetAgentByMoltbookID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 42, stored.Karma)
}

func TestProcessAgentsSkipsInvalid(t *testing.T) {
	processor, _ := setupProcessor(t)

	idMap := processor.ProcessAgents(context.Background(), []moltbook.Agent{
		{ID: "", Name: "nameless"},
		{ID: "agent-ok", Name: "Moltar"},
	})

	assert.Len(t, idMap, 1)
	assert.Contains(t, idMap, "agent-ok")
}

func TestProcessSubmolts(t *testing.T) {
	processor, store := setupProcessor(t)
	ctx := context.Background()

	activity := time.Now().UTC()
	idMap := processor.ProcessSubmolts(ctx, []moltbook.Submolt{
		{ID: "sub-1", Name: "moltlife", DisplayName: "Molt Life", SubscriberCount: 7, LastActivityAt: &activity},
		{ID: "sub-2", Name: "shellcare", DisplayName: "Shell Care"},
	})
	require.Len(t, idMap, 2)

	stored, err := store.GetSubmoltByMoltbookID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "moltlife", stored.Name)
	assert.False(t, stored.LastActivityAt.IsZero())
}

func TestProcessPostsLazyAuthorCreation(t *testing.T) {
	processor, store := setupProcessor(t)
	ctx := context.Background()

	agentIDs := processor.ProcessAgents(ctx, []moltbook.Agent{
		{ID: "agent-known", Name: "Clawdia"},
	})
	submoltIDs := processor.ProcessSubmolts(ctx, []moltbook.Submolt{
		{ID: "sub-1", Name: "moltlife", DisplayName: "Molt Life"},
	})

	posts := []moltbook.Post{
		{
			ID:      "post-1",
			Title:   "First molt",
			Content: "It finally happened.",
			Author:  moltbook.PostAuthor{ID: "agent-known", Name: "Clawdia"},
			Submolt: moltbook.PostSubmolt{ID: "sub-1", Name: "moltlife"},
		},
		{
			ID:      "post-2",
			Title:   "New here",
			Content: "Hello from a fresh shell.",
			Author:  moltbook.PostAuthor{ID: "agent-new", Name: "Pinch"},
			Submolt: moltbook.PostSubmolt{ID: "sub-unknown", Name: "elsewhere"},
		},
	}

	postIDs, err := processor.ProcessPosts(ctx, posts, agentIDs, submoltIDs)
	require.NoError(t, err)
	assert.Len(t, postIDs, 2)

	// The unknown author was created lazily and added to the map.
	assert.Contains(t, agentIDs, "agent-new")
	lazy, err := store.GetAgentByMoltbookID(ctx, "agent-new")
	require.NoError(t, err)
	assert.Equal(t, "Pinch", lazy.Name)

	known, err := store.GetPostByMoltbookID(ctx, "post-1")
	require.NoError(t, err)
	require.NotNil(t, known.AuthorID)
	assert.Equal(t, agentIDs["agent-known"], *known.AuthorID)
	require.NotNil(t, known.SubmoltID)

	// Unknown submolt references are tolerated as null.
	stray, err := store.GetPostByMoltbookID(ctx, "post-2")
	require.NoError(t, err)
	assert.Nil(t, stray.SubmoltID)
	require.NotNil(t, stray.AuthorID)
}

func TestProcessPostsStopsOnCanceledContext(t *testing.T) {
	processor, _ := setupProcessor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.ProcessPosts(ctx, []moltbook.Post{{ID: "post-1", Title: "t"}}, map[string]core.ID{}, map[string]core.ID{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProcessorRequiresRepositories(t *testing.T) {
	store, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = NewProcessor(nil, store, store, store)
	assert.ErrorIs(t, err, ErrAgentRepositoryRequired)
	_, err = NewProcessor(store, nil, store, store)
	assert.ErrorIs(t, err, ErrSubmoltRepositoryRequired)
	_, err = NewProcessor(store, store, nil, store)
	assert.ErrorIs(t, err, ErrPostRepositoryRequired)
	_, err = NewProcessor(store, store, store, nil)
	assert.ErrorIs(t, err, ErrCommentRepositoryRequired)
}
