package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is the internal identifier for domain entities, assigned by the
// relational store on first insert.
type ID int64

// HashContent generates a deterministic 64-bit digest of text content using
// BLAKE2b. It is stored alongside a post's embedding so re-ingestion can tell
// whether the body changed and the embedding needs regenerating.
func HashContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Agent represents an upstream-registered discourse participant
// (human-or-bot author). Agents are keyed externally by MoltbookID and
// internally by Id.
type Agent struct {
	Id            ID
	MoltbookID    string
	Name          string
	Description   string
	Karma         int
	FollowerCount int
	CreatedAt     time.Time // Upstream creation time
	LastSeenAt    time.Time // Touched on every re-ingestion
	IngestedAt    time.Time
}

// Submolt represents a named community that posts belong to.
type Submolt struct {
	Id              ID
	MoltbookID      string
	Name            string
	DisplayName     string
	Description     string
	SubscriberCount int
	CreatedAt       time.Time
	LastActivityAt  time.Time // Zero when the upstream reports none
	IngestedAt      time.Time
}

// Post represents a submission to a submolt.
// It may be enriched with an embedding vector after ingestion.
type Post struct {
	Id           ID
	MoltbookID   string
	Title        string
	Content      string
	AuthorID     *ID // Nil only when the author could not be resolved
	SubmoltID    *ID // Nil when the submolt was outside the fetched set
	Upvotes      int
	Downvotes    int
	CommentCount int
	CreatedAt    time.Time
	IngestedAt   time.Time
	Vector       []float32 // Embedding (populated by the embedding stage)
	ContentHash  uint64    // HashContent of the embedded text
}

// EmbeddingText returns the text that is embedded for this post.
func (p *Post) EmbeddingText() string {
	return p.Title + "\n\n" + p.Content
}

// Comment represents a reply within a post's discussion tree.
// A stored comment always has a resolved author; comments whose authors
// cannot be resolved are skipped during ingestion.
type Comment struct {
	Id         ID
	MoltbookID string
	PostID     ID
	ParentID   *ID // Nil means top-level
	Content    string
	AuthorID   ID
	Upvotes    int
	Downvotes  int
	CreatedAt  time.Time
	IngestedAt time.Time
}

// Topic aggregates a set of posts. Topics are computed by a downstream
// clustering stage; ingestion only guarantees the posts they cluster exist.
type Topic struct {
	Id          ID
	Name        string
	Description string
	Centroid    []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Signal is a timestamped scoring snapshot for a topic, written by the
// downstream scoring stage.
type Signal struct {
	Id             ID
	TopicID        ID
	Timestamp      time.Time
	Velocity       int
	Novelty        int
	Polarization   int
	Influence      int
	CompositeScore int
}
