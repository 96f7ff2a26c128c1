package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/moltbook"
)

// seedIngestedPost stores one post and returns its internal id plus the
// agent map built along the way.
func seedIngestedPost(t *testing.T, processor *Processor) (core.ID, map[string]core.ID) {
	t.Helper()
	ctx := context.Background()

	agentIDs := processor.ProcessAgents(ctx, []moltbook.Agent{
		{ID: "agent-1", Name: "Clawdia"},
	})
	require.Len(t, agentIDs, 1)

	postIDs, err := processor.ProcessPosts(ctx, []moltbook.Post{
		{ID: "post-1", Title: "First molt", Content: "body", Author: moltbook.PostAuthor{ID: "agent-1", Name: "Clawdia"}},
	}, agentIDs, map[string]core.ID{})
	require.NoError(t, err)
	require.Len(t, postIDs, 1)

	return postIDs["post-1"], agentIDs
}

func TestProcessCommentsFlattensTree(t *testing.T) {
	processor, store := setupProcessor(t)
	ctx := context.Background()
	postID, agentIDs := seedIngestedPost(t, processor)

	tree := []moltbook.Comment{
		{
			ID:      "c1",
			Content: "top level",
			Author:  moltbook.CommentAuthor{ID: "agent-1", Name: "Clawdia"},
			Replies: []moltbook.Comment{
				{
					ID:      "c2",
					Content: "nested",
					Author:  moltbook.CommentAuthor{ID: "agent-2", Name: "Shellby"},
					Replies: []moltbook.Comment{
						{ID: "c3", Content: "deep", Author: moltbook.CommentAuthor{ID: "agent-1", Name: "Clawdia"}},
					},
				},
			},
		},
		{ID: "c4", Content: "another top level", Author: moltbook.CommentAuthor{ID: "agent-1", Name: "Clawdia"}},
	}

	inserted, err := processor.ProcessComments(ctx, postID, tree, agentIDs)
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)

	// Reply authors unseen by the agents stage are created lazily.
	assert.Contains(t, agentIDs, "agent-2")

	top, err := store.GetCommentByMoltbookID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, top.ParentID)
	assert.Equal(t, postID, top.PostID)

	nested, err := store.GetCommentByMoltbookID(ctx, "c2")
	require.NoError(t, err)
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, top.Id, *nested.ParentID)

	deep, err := store.GetCommentByMoltbookID(ctx, "c3")
	require.NoError(t, err)
	require.NotNil(t, deep.ParentID)
	assert.Equal(t, nested.Id, *deep.ParentID)
}

func TestProcessCommentsRerunInsertsNothing(t *testing.T) {
	processor, store := setupProcessor(t)
	ctx := context.Background()
	postID, agentIDs := seedIngestedPost(t, processor)

	tree := []moltbook.Comment{
		{
			ID:      "c1",
			Content: "top level",
			Author:  moltbook.CommentAuthor{ID: "agent-1", Name: "Clawdia"},
			Replies: []moltbook.Comment{
				{ID: "c2", Content: "nested", Author: moltbook.CommentAuthor{ID: "agent-1", Name: "Clawdia"}},
			},
		},
	}

	inserted, err := processor.ProcessComments(ctx, postID, tree, agentIDs)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	tree[0].Content = "edited"
	again, err := processor.ProcessComments(ctx, postID, tree, agentIDs)
	require.NoError(t, err)
	assert.Equal(t, 0, again)

	count, err := store.CountComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	edited, err := store.GetCommentByMoltbookID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)
}

func TestProcessCommentsDropsAuthorlessSubtree(t *testing.T) {
	processor, store := setupProcessor(t)
	ctx := context.Background()
	postID, agentIDs := seedIngestedPost(t, processor)

	tree := []moltbook.Comment{
		{
			ID:      "c1",
			Content: "orphan root",
			Author:  moltbook.CommentAuthor{}, // no author id
			Replies: []moltbook.Comment{
				{ID: "c2", Content: "child of orphan", Author: moltbook.CommentAuthor{ID: "agent-1", Name: "Clawdia"}},
			},
		},
		{ID: "c3", Content: "sibling survives", Author: moltbook.CommentAuthor{ID: "agent-1", Name: "Clawdia"}},
	}

	inserted, err := processor.ProcessComments(ctx, postID, tree, agentIDs)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// The orphan and its whole subtree are dropped; a child must never
	// reference a parent row that was not stored.
	_, err = store.GetCommentByMoltbookID(ctx, "c1")
	assert.Error(t, err)
	_, err = store.GetCommentByMoltbookID(ctx, "c2")
	assert.Error(t, err)

	survivor, err := store.GetCommentByMoltbookID(ctx, "c3")
	require.NoError(t, err)
	assert.Nil(t, survivor.ParentID)
}
