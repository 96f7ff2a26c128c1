package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/moltspace/moltspace/ai"
	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

// BatchProcessor handles embedding generation for batches of posts.
type BatchProcessor struct {
	repo           storage.PostRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.PostRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of posts and stores them.
// Vectors are normalized after embedding to ensure compatibility with
// cosine similarity. The stored content hash records which text each
// embedding was generated from, so ingestion can detect staleness later.
func (bp *BatchProcessor) Process(ctx context.Context, posts []*core.Post) error {
	if len(posts) == 0 {
		return nil
	}

	texts := make([]string, len(posts))
	for i, post := range posts {
		texts[i] = post.EmbeddingText()
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(posts) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(posts), len(embeddings))
	}

	for i, post := range posts {
		vector := NormalizeVector(embeddings[i])
		if err := bp.repo.SetPostEmbedding(ctx, post.Id, vector, core.HashContent(texts[i])); err != nil {
			return fmt.Errorf("failed to store embedding for post %d: %w", post.Id, err)
		}
	}

	return nil
}
