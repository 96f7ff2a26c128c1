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
	"log/slog"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/moltbook"
	"github.com/moltspace/moltspace/storage"
)

// Processor reconciles fetched Moltbook records into the store, building
// the external-id to internal-id maps used to resolve references between
// entity kinds. The maps live only for the duration of one run; rebuilding
// them from the store on every invocation is what makes re-ingestion
// idempotent.
type Processor struct {
	agents   storage.AgentRepository
	submolts storage.SubmoltRepository
	posts    storage.PostRepository
	comments storage.CommentRepository
	logger   *slog.Logger
}

// NewProcessor creates a processor over the given repositories.
func NewProcessor(
	agents storage.AgentRepository,
	submolts storage.SubmoltRepository,
	posts storage.PostRepository,
	comments storage.CommentRepository,
	opts ...ProcessorOption,
) (*Processor, error) {
	if agents == nil {
		return nil, ErrAgentRepositoryRequired
	}
	if submolts == nil {
		return nil, ErrSubmoltRepositoryRequired
	}
	if posts == nil {
		return nil, ErrPostRepositoryRequired
	}
	if comments == nil {
		return nil, ErrCommentRepositoryRequired
	}

	p := &Processor{
		agents:   agents,
		submolts: submolts,
		posts:    posts,
		comments: comments,
		logger:   slog.Default().With("component", "processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets a custom logger. Default is slog.Default().
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// ProcessAgents upserts the fetched agents and returns a map from external
// id to internal id covering every agent that was stored. A per-record
// failure is logged and that record is omitted from the map; siblings
// continue.
func (p *Processor) ProcessAgents(ctx context.Context, agents []moltbook.Agent) map[string]core.ID {
	idMap := make(map[string]core.ID, len(agents))

	for _, agent := range agents {
		id, _, err := p.agents.UpsertAgent(ctx, &core.Agent{
			MoltbookID:    agent.ID,
			Name:          agent.Name,
			Description:   agent.Description,
			Karma:         agent.Karma,
			FollowerCount: agent.FollowerCount,
			CreatedAt:     agent.CreatedAt,
		})
		if err != nil {
			p.logger.Error("failed to process agent", "agent", agent.ID, "err", err)
			continue
		}
		idMap[agent.ID] = id
	}

	return idMap
}

// ProcessSubmolts upserts the fetched submolts and returns the external-id
// to internal-id map for those stored.
func (p *Processor) ProcessSubmolts(ctx context.Context, submolts []moltbook.Submolt) map[string]core.ID {
	idMap := make(map[string]core.ID, len(submolts))

	for _, submolt := range submolts {
		record := &core.Submolt{
			MoltbookID:      submolt.ID,
			Name:            submolt.Name,
			DisplayName:     submolt.DisplayName,
			Description:     submolt.Description,
			SubscriberCount: submolt.SubscriberCount,
			CreatedAt:       submolt.CreatedAt,
		}
		if submolt.LastActivityAt != nil {
			record.LastActivityAt = *submolt.LastActivityAt
		}

		id, _, err := p.submolts.UpsertSubmolt(ctx, record)
		if err != nil {
			p.logger.Error("failed to process submolt", "submolt", submolt.ID, "err", err)
			continue
		}
		idMap[submolt.ID] = id
	}

	return idMap
}

// ProcessPosts upserts the fetched posts, resolving each author through
// agentIDs and each submolt through submoltIDs. Authors missing from the
// pre-fetched batch are created lazily via EnsureAgent (and added to
// agentIDs for subsequent posts and the comments stage); a missing submolt
// reference is tolerated as null. Per-post failures are logged and omitted
// from the returned map.
//
// The only non-nil error is context cancellation, which the coordinator
// converts into a degraded empty stage rather than an aborted run.
func (p *Processor) ProcessPosts(
	ctx context.Context,
	posts []moltbook.Post,
	agentIDs map[string]core.ID,
	submoltIDs map[string]core.ID,
) (map[string]core.ID, error) {
	idMap := make(map[string]core.ID, len(posts))

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		authorID, ok := agentIDs[post.Author.ID]
		if !ok && post.Author.ID != "" {
			id, err := p.agents.EnsureAgent(ctx, post.Author.ID, post.Author.Name)
			if err != nil {
				p.logger.Error("failed to ensure post author", "post", post.ID, "author", post.Author.ID, "err", err)
				continue
			}
			agentIDs[post.Author.ID] = id
			authorID = id
			ok = true
		}

		record := &core.Post{
			MoltbookID:   post.ID,
			Title:        post.Title,
			Content:      post.Content,
			Upvotes:      post.Upvotes,
			Downvotes:    post.Downvotes,
			CommentCount: post.CommentCount,
			CreatedAt:    post.CreatedAt,
		}
		if ok {
			record.AuthorID = &authorID
		}
		if submoltID, found := submoltIDs[post.Submolt.ID]; found {
			record.SubmoltID = &submoltID
		}

		id, _, err := p.posts.UpsertPost(ctx, record)
		if err != nil {
			p.logger.Error("failed to process post", "post", post.ID, "err", err)
			continue
		}
		idMap[post.ID] = id
	}

	return idMap, nil
}
