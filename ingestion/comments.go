// Copyright 2025 MoltSpace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/moltbook"
)

// commentWork pairs a node from the upstream reply tree with its already
// resolved internal parent id.
type commentWork struct {
	node   *moltbook.Comment
	parent *core.ID
}

// ProcessComments flattens a post's nested reply tree into stored rows,
// depth-first, so every parent row exists before any of its children is
// written. Authors are resolved through agentIDs, falling back to
// EnsureAgent for authors the agents stage never saw.
//
// When a comment's author cannot be resolved or its upsert fails, the
// comment and its entire subtree are dropped: a child row must never
// reference a parent that was not stored.
//
// Returns the number of comments newly inserted; re-processing an
// unchanged tree returns zero.
func (p *Processor) ProcessComments(
	ctx context.Context,
	postID core.ID,
	comments []moltbook.Comment,
	agentIDs map[string]core.ID,
) (int, error) {
	inserted := 0

	stack := make([]commentWork, 0, len(comments))
	for i := len(comments) - 1; i >= 0; i-- {
		stack = append(stack, commentWork{node: &comments[i]})
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		work := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		comment := work.node

		authorID, ok := agentIDs[comment.Author.ID]
		if !ok {
			if comment.Author.ID == "" {
				p.logger.Warn("skipping comment subtree with no author", "comment", comment.ID)
				continue
			}
			id, err := p.agents.EnsureAgent(ctx, comment.Author.ID, comment.Author.Name)
			if err != nil {
				p.logger.Error("skipping comment subtree, failed to ensure author",
					"comment", comment.ID, "author", comment.Author.ID, "err", err)
				continue
			}
			agentIDs[comment.Author.ID] = id
			authorID = id
		}

		id, isNew, err := p.comments.UpsertComment(ctx, &core.Comment{
			MoltbookID: comment.ID,
			PostID:     postID,
			ParentID:   work.parent,
			Content:    comment.Content,
			AuthorID:   authorID,
			Upvotes:    comment.Upvotes,
			Downvotes:  comment.Downvotes,
			CreatedAt:  comment.CreatedAt,
		})
		if err != nil {
			p.logger.Error("skipping comment subtree, failed to store comment", "comment", comment.ID, "err", err)
			continue
		}
		if isNew {
			inserted++
		}

		// Push replies in reverse so they pop in document order.
		parentID := id
		for i := len(comment.Replies) - 1; i >= 0; i-- {
			stack = append(stack, commentWork{node: &comment.Replies[i], parent: &parentID})
		}
	}

	return inserted, nil
}
