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
	"time"

	"github.com/moltspace/moltspace/moltbook"
)

const (
	// pageSize is the page size used for every paginated endpoint.
	pageSize = 100

	// defaultPostPageDelay throttles logical pagination steps over the
	// posts listing, on top of the client's own request rate limiting.
	defaultPostPageDelay = 1000 * time.Millisecond

	// defaultCommentPageDelay is the shorter delay between comment pages.
	defaultCommentPageDelay = 500 * time.Millisecond

	// agentFetchLimit is the single-call limit for the recent-agents
	// endpoint, which has no pagination.
	agentFetchLimit = 100
)

// Fetcher drives the Moltbook client through full pagination for each
// entity kind, collecting per-page errors without aborting the whole fetch.
type Fetcher struct {
	client       *moltbook.Client
	postDelay    time.Duration
	commentDelay time.Duration
	sleep        func(context.Context, time.Duration) error
	logger       *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithPageDelays overrides the inter-page delays. Intended for tests.
func WithPageDelays(postDelay, commentDelay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.postDelay = postDelay
		f.commentDelay = commentDelay
	}
}

// WithFetcherLogger sets a custom logger. Default is slog.Default().
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a fetcher over the given client.
func NewFetcher(client *moltbook.Client, opts ...FetcherOption) (*Fetcher, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	f := &Fetcher{
		client:       client,
		postDelay:    defaultPostPageDelay,
		commentDelay: defaultCommentPageDelay,
		sleep:        sleepContext,
		logger:       slog.Default().With("component", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FetchPostsResult holds the accumulated posts of a paginated fetch plus
// any page-level error messages.
type FetchPostsResult struct {
	Posts  []moltbook.Post
	Errors []string
}

// FetchAllPosts pages through the posts listing sorted by newest,
// accumulating posts until the upstream reports no more, a page comes back
// short, or maxPosts is reached. A page in flight always completes, so the
// result may overshoot maxPosts by up to one page.
//
// On a page error, pagination stops immediately and the error is recorded
// tagged with the failing offset: partial result sets are acceptable,
// silently skipping gaps is not. maxPosts <= 0 means unbounded.
func (f *Fetcher) FetchAllPosts(ctx context.Context, maxPosts int) FetchPostsResult {
	var result FetchPostsResult
	offset := 0
	hasMore := true

	for hasMore && (maxPosts <= 0 || len(result.Posts) < maxPosts) {
		resp, err := f.client.Posts(ctx, moltbook.PostsParams{
			Limit:  pageSize,
			Offset: offset,
			Sort:   moltbook.SortNew,
		})
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to fetch posts at offset %d: %v", offset, err))
			break
		}

		result.Posts = append(result.Posts, resp.Posts...)
		f.logger.Debug("fetched posts page", "offset", offset, "page", len(resp.Posts), "total", len(result.Posts))

		hasMore = len(resp.Posts) == pageSize && resp.HasMore
		if resp.NextOffset > 0 {
			offset = resp.NextOffset
		} else {
			offset += pageSize
		}

		if !hasMore || (maxPosts > 0 && len(result.Posts) >= maxPosts) {
			break
		}
		if err := f.sleep(ctx, f.postDelay); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("posts fetch interrupted at offset %d: %v", offset, err))
			break
		}
	}

	return result
}

// FetchPostComments pages through the comments of one post. The endpoint
// has no has-more flag, so a page shorter than the page size is treated as
// end-of-data. Comments are best-effort: on error the fetch logs, stops,
// and returns whatever accumulated without propagating the failure.
func (f *Fetcher) FetchPostComments(ctx context.Context, postID string) []moltbook.Comment {
	var all []moltbook.Comment
	offset := 0

	for {
		resp, err := f.client.Comments(ctx, postID, moltbook.CommentsParams{
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			f.logger.Error("failed to fetch comments", "post", postID, "offset", offset, "err", err)
			break
		}

		all = append(all, resp.Comments...)
		offset += len(resp.Comments)

		if len(resp.Comments) < pageSize {
			break
		}
		if err := f.sleep(ctx, f.commentDelay); err != nil {
			f.logger.Warn("comments fetch interrupted", "post", postID, "err", err)
			break
		}
	}

	return all
}

// FetchAllAgents fetches one batch of recent agents. The endpoint is not
// paginated and not guaranteed exhaustive; post authors outside the batch
// are created lazily during reconciliation. Failures degrade to an empty
// result and must never abort the run.
func (f *Fetcher) FetchAllAgents(ctx context.Context) []moltbook.Agent {
	resp, err := f.client.Agents(ctx, moltbook.AgentsParams{
		Limit: agentFetchLimit,
		Sort:  moltbook.SortRecent,
	})
	if err != nil {
		f.logger.Error("failed to fetch agents", "err", err)
		return nil
	}
	return resp.Agents
}

// FetchAllSubmolts fetches all submolts in a single call. Failures degrade
// to an empty result.
func (f *Fetcher) FetchAllSubmolts(ctx context.Context) []moltbook.Submolt {
	resp, err := f.client.Submolts(ctx)
	if err != nil {
		f.logger.Error("failed to fetch submolts", "err", err)
		return nil
	}
	return resp.Submolts
}

// sleepContext sleeps for d unless the context is canceled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
