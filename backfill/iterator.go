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

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

const (
	// DefaultBatchSize is the default number of posts to fetch in each batch
	DefaultBatchSize = 100
)

// PostIterator iterates over stored posts in batches.
type PostIterator struct {
	repo        storage.PostRepository
	batchSize   int
	onlyMissing bool
}

// NewPostIterator creates a new post iterator.
// batchSize: number of posts to fetch in each batch (must be > 0)
// onlyMissing: restrict iteration to posts without an embedding
func NewPostIterator(repo storage.PostRepository, batchSize int, onlyMissing bool) *PostIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &PostIterator{
		repo:        repo,
		batchSize:   batchSize,
		onlyMissing: onlyMissing,
	}
}

// ForEach iterates over the matching posts, calling fn for each batch.
// Iteration stops on first error from fn or when all posts are visited.
// Context cancellation is checked between batches.
//
// The full candidate set is snapshotted before the first callback; writes
// performed by fn (such as storing a freshly generated embedding) cannot
// shift subsequent page offsets mid-iteration.
func (it *PostIterator) ForEach(ctx context.Context, fn func([]*core.Post) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var all []*core.Post
	offset := 0
	for {
		page, err := it.repo.ListPosts(ctx, offset, it.batchSize, it.onlyMissing)
		if err != nil {
			return err
		}
		all = append(all, page...)
		if len(page) < it.batchSize {
			break
		}
		offset += len(page)
	}

	if len(all) == 0 {
		return nil
	}

	for i := 0; i < len(all); i += it.batchSize {
		end := i + it.batchSize
		if end > len(all) {
			end = len(all)
		}

		if err := fn(all[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
