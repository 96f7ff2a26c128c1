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

func seedAgent(t *testing.T, store *Store, moltbookID, name string) core.ID {
	t.Helper()
	id, err := store.EnsureAgent(context.Background(), moltbookID, name)
	require.NoError(t, err)
	return id
}

func TestUpsertPost_InsertThenUpdate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	authorID := seedAgent(t, store, "mb-a1", "crab")
	post := &core.Post{
		MoltbookID: "mb-p1",
		Title:      "Molting season",
		Content:    "It begins.",
		AuthorID:   &authorID,
		Upvotes:    5,
		CreatedAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	id1, inserted, err := store.UpsertPost(ctx, post)
	require.NoError(t, err)
	assert.True(t, inserted)

	post.Upvotes = 50
	id2, inserted, err := store.UpsertPost(ctx, post)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id1, id2)

	stored, err := store.GetPostByMoltbookID(ctx, "mb-p1")
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Upvotes)
	require.NotNil(t, stored.AuthorID)
	assert.Equal(t, authorID, *stored.AuthorID)
	assert.Nil(t, stored.SubmoltID, "absent submolt reference stays null")
}

func TestUpsertPost_UpdatePreservesEmbedding(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	post := &core.Post{MoltbookID: "mb-p2", Title: "t", Content: "c"}
	id, _, err := store.UpsertPost(ctx, post)
	require.NoError(t, err)

	vector := []float32{0.1, 0.2, 0.3}
	hash := core.HashContent(post.EmbeddingText())
	require.NoError(t, store.SetPostEmbedding(ctx, id, vector, hash))

	// Re-ingesting the post must not wipe the vector.
	_, _, err = store.UpsertPost(ctx, post)
	require.NoError(t, err)

	stored, err := store.GetPostByMoltbookID(ctx, "mb-p2")
	require.NoError(t, err)
	assert.Equal(t, vector, stored.Vector)
	assert.Equal(t, hash, stored.ContentHash)

	hasEmbedding, storedHash, err := store.PostEmbeddingState(ctx, id)
	require.NoError(t, err)
	assert.True(t, hasEmbedding)
	assert.Equal(t, hash, storedHash)
}

func TestSetPostEmbedding_UnknownPost(t *testing.T) {
	store := setupStore(t)
	err := store.SetPostEmbedding(context.Background(), 9999, []float32{1}, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListPosts_MissingEmbeddings(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	var embedded core.ID
	for i, mbID := range []string{"mb-p1", "mb-p2", "mb-p3"} {
		id, _, err := store.UpsertPost(ctx, &core.Post{MoltbookID: mbID, Title: "t", Content: "c"})
		require.NoError(t, err)
		if i == 0 {
			embedded = id
		}
	}
	require.NoError(t, store.SetPostEmbedding(ctx, embedded, []float32{1, 2}, 7))

	missing, err := store.ListPosts(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	all, err := store.ListPosts(ctx, 0, 10, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	count, err := store.CountPosts(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListPosts_Paging(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, mbID := range []string{"a", "b", "c", "d", "e"} {
		_, _, err := store.UpsertPost(ctx, &core.Post{MoltbookID: mbID, Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	page1, err := store.ListPosts(ctx, 0, 2, false)
	require.NoError(t, err)
	page2, err := store.ListPosts(ctx, 2, 2, false)
	require.NoError(t, err)
	page3, err := store.ListPosts(ctx, 4, 2, false)
	require.NoError(t, err)

	require.Len(t, page1, 2)
	require.Len(t, page2, 2)
	require.Len(t, page3, 1)
	assert.Less(t, page1[1].Id, page2[0].Id, "pages ordered by internal id")
}
