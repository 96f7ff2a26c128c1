package storage

import (
	"context"

	"github.com/moltspace/moltspace/core"
)

// Repository provides operations shared across all repositories.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Close closes the storage backend and releases resources.
	Close() error
}

// AgentRepository provides upsert-by-external-id operations for agents.
type AgentRepository interface {
	Repository

	// UpsertAgent inserts the agent or, when a row with the same
	// MoltbookID exists, overwrites its mutable fields and touches
	// LastSeenAt. Returns the internal id and whether a new row was
	// inserted.
	UpsertAgent(ctx context.Context, agent *core.Agent) (core.ID, bool, error)

	// EnsureAgent performs a single atomic insert-on-conflict-update keyed
	// on moltbookID, setting name and last-seen on conflict. Safe under
	// concurrent identical upserts: a losing insert resolves to an update,
	// never a uniqueness violation.
	EnsureAgent(ctx context.Context, moltbookID, name string) (core.ID, error)

	// GetAgentByMoltbookID retrieves an agent by its external id.
	// Returns ErrNotFound if no such agent exists.
	GetAgentByMoltbookID(ctx context.Context, moltbookID string) (*core.Agent, error)

	// CountAgents returns the number of stored agents.
	CountAgents(ctx context.Context) (int, error)
}

// SubmoltRepository provides upsert-by-external-id operations for submolts.
type SubmoltRepository interface {
	Repository

	// UpsertSubmolt inserts or overwrites a submolt keyed on MoltbookID.
	UpsertSubmolt(ctx context.Context, submolt *core.Submolt) (core.ID, bool, error)

	// GetSubmoltByMoltbookID retrieves a submolt by its external id.
	// Returns ErrNotFound if no such submolt exists.
	GetSubmoltByMoltbookID(ctx context.Context, moltbookID string) (*core.Submolt, error)

	// CountSubmolts returns the number of stored submolts.
	CountSubmolts(ctx context.Context) (int, error)
}

// PostRepository provides upsert and embedding operations for posts.
type PostRepository interface {
	Repository

	// UpsertPost inserts or overwrites a post keyed on MoltbookID.
	// An update never clears a previously stored embedding.
	UpsertPost(ctx context.Context, post *core.Post) (core.ID, bool, error)

	// GetPostByMoltbookID retrieves a post (including its embedding) by
	// its external id. Returns ErrNotFound if no such post exists.
	GetPostByMoltbookID(ctx context.Context, moltbookID string) (*core.Post, error)

	// SetPostEmbedding stores the embedding vector and the content hash of
	// the embedded text for the given post.
	SetPostEmbedding(ctx context.Context, id core.ID, vector []float32, contentHash uint64) error

	// PostEmbeddingState reports whether the post has an embedding and the
	// content hash it was generated from. Returns ErrNotFound for unknown
	// posts.
	PostEmbeddingState(ctx context.Context, id core.ID) (hasEmbedding bool, contentHash uint64, err error)

	// ListPosts returns posts ordered by internal id, for batch iteration.
	// When missingEmbeddings is true only posts without an embedding are
	// returned.
	ListPosts(ctx context.Context, offset, limit int, missingEmbeddings bool) ([]*core.Post, error)

	// CountPosts returns the number of stored posts. When
	// missingEmbeddings is true only posts without an embedding are
	// counted.
	CountPosts(ctx context.Context, missingEmbeddings bool) (int, error)
}

// CommentRepository provides upsert-by-external-id operations for comments.
type CommentRepository interface {
	Repository

	// UpsertComment inserts or overwrites a comment keyed on MoltbookID.
	// The parent reference is written as given (nil means top-level).
	UpsertComment(ctx context.Context, comment *core.Comment) (core.ID, bool, error)

	// GetCommentByMoltbookID retrieves a comment by its external id.
	// Returns ErrNotFound if no such comment exists.
	GetCommentByMoltbookID(ctx context.Context, moltbookID string) (*core.Comment, error)

	// CountComments returns the number of stored comments.
	CountComments(ctx context.Context) (int, error)
}

// TopicRepository provides read-only access to the downstream clustering
// tables. Ingestion never writes these; they exist so operators can inspect
// what the scoring stage has produced.
type TopicRepository interface {
	Repository

	// CountTopics returns the number of stored topics.
	CountTopics(ctx context.Context) (int, error)

	// CountSignals returns the number of stored signal snapshots.
	CountSignals(ctx context.Context) (int, error)
}
