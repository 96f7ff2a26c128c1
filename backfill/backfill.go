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


package backfill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/moltspace/moltspace/ai"
	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

// Config holds configuration for the backfill operation.
type Config struct {
	// BatchSize is the number of posts to embed in each batch
	BatchSize int

	// Workers is the number of batches embedded concurrently. The
	// embedding provider has no shared rate limit with the Moltbook API,
	// so fan-out here is safe.
	Workers int

	// ReportInterval is how often to report progress (number of posts)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// OnlyMissing restricts the backfill to posts without an embedding.
	// When false every post is re-embedded, stale or not.
	OnlyMissing bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	return &Config{
		BatchSize:      100,
		Workers:        workers,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		OnlyMissing:    true,
	}
}

// Backfiller orchestrates embedding generation across the stored posts.
type Backfiller struct {
	repo      storage.PostRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *PostIterator
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr)
func NewBackfiller(repo storage.PostRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Backfiller, error) {
	if repo == nil {
		return nil, ErrPostRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Backfiller{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewPostIterator(repo, config.BatchSize, config.OnlyMissing),
	}, nil
}

// Run executes the backfill. Batches are distributed across a worker pool;
// a failed batch is recorded and the remaining batches still run, so one
// bad batch cannot strand the rest of the store without embeddings.
func (b *Backfiller) Run(ctx context.Context) error {
	total, err := b.repo.CountPosts(ctx, b.config.OnlyMissing)
	if err != nil {
		return fmt.Errorf("failed to count posts: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(b.progress, "No posts to embed (0 posts)\n")
		return nil
	}

	fmt.Fprintf(b.progress, "Starting embedding backfill of %d posts (batch size: %d, workers: %d)\n",
		total, b.config.BatchSize, b.config.Workers)

	workers := b.config.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	tracker := NewProgressTracker(b.progress, total, b.config.ReportInterval)
	tracker.Start()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		batchErrs []error
	)

	err = b.iterator.ForEach(ctx, func(posts []*core.Post) error {
		batch := posts
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if procErr := b.processor.Process(ctx, batch); procErr != nil {
				mu.Lock()
				batchErrs = append(batchErrs, procErr)
				mu.Unlock()
				return
			}
			tracker.Increment(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			return submitErr
		}
		return nil
	})

	wg.Wait()

	if err != nil {
		return err
	}
	if len(batchErrs) > 0 {
		return fmt.Errorf("backfill completed with %d failed batches: %w", len(batchErrs), errors.Join(batchErrs...))
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Backfill complete. Embedded %d posts in %v (%.1f posts/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
