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
	"fmt"
	"log/slog"

	"github.com/moltspace/moltspace/ai"
	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/moltbook"
	"github.com/moltspace/moltspace/storage"
)

const (
	// DefaultMaxPosts bounds one run's post fetch when the caller does
	// not specify a cap.
	DefaultMaxPosts = 100

	// embeddingPostLimit bounds the embedding stage to the first N
	// fetched posts, keeping a run inside its time budget.
	embeddingPostLimit = 50

	// commentPostLimit bounds the comments stage to the first M fetched
	// posts, each independently paginated.
	commentPostLimit = 10
)

// Options configures one ingestion run.
type Options struct {
	// MaxPosts caps how many posts are fetched. Zero means DefaultMaxPosts;
	// negative means unbounded.
	MaxPosts int

	// IncludeComments enables the comments stage for the first few
	// fetched posts.
	IncludeComments bool
}

// Stats aggregates the per-stage outcomes of one run.
type Stats struct {
	AgentsProcessed     int      `json:"agentsProcessed"`
	SubmoltsProcessed   int      `json:"submoltsProcessed"`
	PostsProcessed      int      `json:"postsProcessed"`
	CommentsProcessed   int      `json:"commentsProcessed"`
	EmbeddingsGenerated int      `json:"embeddingsGenerated"`
	PostsFetched        int      `json:"postsFetchedFromMoltbook"`
	Errors              []string `json:"errors"`
}

// Report is the single outcome of an ingestion run. Success means the run
// completed its stages; a populated Stats.Errors alongside Success=true is
// the common case, not the exception. Error is set only on catastrophic
// failure, when no stats are meaningful.
type Report struct {
	Success bool   `json:"success"`
	Stats   *Stats `json:"stats,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Job sequences a full ingestion run: fetch agents, submolts, and posts
// from Moltbook, reconcile them into the store, embed a bounded prefix of
// the posts, and optionally flatten their comment trees.
type Job struct {
	fetcher   *Fetcher
	processor *Processor
	posts     storage.PostRepository
	embedder  ai.Embedder
	logger    *slog.Logger
}

// JobOption configures a Job.
type JobOption func(*Job)

// WithEmbedder sets the embedding provider. Without one the embedding
// stage is skipped with an advisory error.
func WithEmbedder(embedder ai.Embedder) JobOption {
	return func(j *Job) {
		j.embedder = embedder
	}
}

// WithJobLogger sets a custom logger. Default is slog.Default().
func WithJobLogger(logger *slog.Logger) JobOption {
	return func(j *Job) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// NewJob creates an ingestion job over the given fetcher, processor, and
// post repository.
func NewJob(fetcher *Fetcher, processor *Processor, posts storage.PostRepository, opts ...JobOption) (*Job, error) {
	if fetcher == nil {
		return nil, ErrClientRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}
	if posts == nil {
		return nil, ErrPostRepositoryRequired
	}

	j := &Job{
		fetcher:   fetcher,
		processor: processor,
		posts:     posts,
		logger:    slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Run executes one ingestion pass and always returns a report: entity and
// stage failures accumulate in the stats error list, and anything escaping
// the stages is caught and reported as a catastrophic failure.
func (j *Job) Run(ctx context.Context, opts Options) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("ingestion run panicked", "panic", r)
			report = &Report{Success: false, Error: fmt.Sprintf("ingestion failed: %v", r)}
		}
	}()

	maxPosts := opts.MaxPosts
	if maxPosts == 0 {
		maxPosts = DefaultMaxPosts
	}

	stats := &Stats{Errors: []string{}}
	j.logger.Info("starting ingestion run", "maxPosts", maxPosts, "includeComments", opts.IncludeComments)

	agents := j.fetcher.FetchAllAgents(ctx)
	agentIDs := j.processor.ProcessAgents(ctx, agents)
	stats.AgentsProcessed = len(agentIDs)

	submolts := j.fetcher.FetchAllSubmolts(ctx)
	submoltIDs := j.processor.ProcessSubmolts(ctx, submolts)
	stats.SubmoltsProcessed = len(submoltIDs)

	fetched := j.fetcher.FetchAllPosts(ctx, maxPosts)
	stats.Errors = append(stats.Errors, fetched.Errors...)
	stats.PostsFetched = len(fetched.Posts)
	if len(fetched.Posts) == 0 && len(fetched.Errors) == 0 {
		stats.Errors = append(stats.Errors, "no posts fetched from moltbook")
	}

	postIDs, err := j.processor.ProcessPosts(ctx, fetched.Posts, agentIDs, submoltIDs)
	if err != nil {
		// The posts stage degrades to empty rather than aborting: the
		// embedding and comments stages still run against whatever
		// mappings exist.
		stats.Errors = append(stats.Errors, fmt.Sprintf("posts stage failed: %v", err))
		postIDs = map[string]core.ID{}
	}
	stats.PostsProcessed = len(postIDs)

	j.embedPosts(ctx, fetched.Posts, postIDs, stats)

	if opts.IncludeComments {
		j.ingestComments(ctx, fetched.Posts, postIDs, agentIDs, stats)
	}

	j.logger.Info("ingestion run complete",
		"agents", stats.AgentsProcessed,
		"submolts", stats.SubmoltsProcessed,
		"posts", stats.PostsProcessed,
		"comments", stats.CommentsProcessed,
		"embeddings", stats.EmbeddingsGenerated,
		"errors", len(stats.Errors))

	return &Report{Success: true, Stats: stats}
}

// embedPosts generates embeddings for a bounded prefix of the fetched
// posts. A post whose stored content hash matches the fetched text is
// skipped; its embedding is already current.
func (j *Job) embedPosts(ctx context.Context, posts []moltbook.Post, postIDs map[string]core.ID, stats *Stats) {
	if j.embedder == nil {
		stats.Errors = append(stats.Errors, "embeddings skipped: no embedding provider configured")
		return
	}

	limit := len(posts)
	if limit > embeddingPostLimit {
		limit = embeddingPostLimit
	}

	for _, post := range posts[:limit] {
		id, ok := postIDs[post.ID]
		if !ok {
			continue
		}

		text := post.Title + "\n\n" + post.Content
		hash := core.HashContent(text)

		hasEmbedding, storedHash, err := j.posts.PostEmbeddingState(ctx, id)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("failed to check embedding for post %s: %v", post.ID, err))
			continue
		}
		if hasEmbedding && storedHash == hash {
			continue
		}

		vector, err := j.embedder.EmbedText(ctx, text)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("failed to embed post %s: %v", post.ID, err))
			continue
		}
		if err := j.posts.SetPostEmbedding(ctx, id, vector, hash); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("failed to store embedding for post %s: %v", post.ID, err))
			continue
		}
		stats.EmbeddingsGenerated++
	}
}

// ingestComments fetches and flattens the comment trees of a bounded
// prefix of the fetched posts.
func (j *Job) ingestComments(ctx context.Context, posts []moltbook.Post, postIDs map[string]core.ID, agentIDs map[string]core.ID, stats *Stats) {
	limit := len(posts)
	if limit > commentPostLimit {
		limit = commentPostLimit
	}

	for _, post := range posts[:limit] {
		id, ok := postIDs[post.ID]
		if !ok {
			continue
		}

		comments := j.fetcher.FetchPostComments(ctx, post.ID)
		inserted, err := j.processor.ProcessComments(ctx, id, comments, agentIDs)
		stats.CommentsProcessed += inserted
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("comments stage interrupted at post %s: %v", post.ID, err))
			return
		}
	}
}
