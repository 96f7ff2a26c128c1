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


package moltbook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production Moltbook host.
	DefaultBaseURL = "https://www.moltbook.com"

	userAgent = "MoltSpace/1.0 (ingestion; +https://github.com/moltspace)"
)

// Client is a read-only Moltbook API client. All requests go through a
// shared Limiter, so one Client respects the upstream's single rate
// contract regardless of which operation is called.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *Limiter
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (timeouts, transport).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimitInterval sets the minimum interval between requests.
// Default is DefaultRateLimitInterval.
func WithRateLimitInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = NewLimiter(interval)
	}
}

// WithLimiter sets a custom limiter. Intended for tests with fake clocks.
func WithLimiter(l *Limiter) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Moltbook client for the given base URL.
// An empty baseURL falls back to DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    NewLimiter(DefaultRateLimitInterval),
		logger:     slog.Default().With("component", "moltbook-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostsParams are the query parameters for the posts listing endpoint.
type PostsParams struct {
	Limit  int
	Offset int
	Sort   PostSort
}

// Posts fetches a page of posts.
func (c *Client) Posts(ctx context.Context, params PostsParams) (*PostsResponse, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}
	if params.Sort == "" {
		params.Sort = SortNew
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(params.Limit))
	q.Set("offset", strconv.Itoa(params.Offset))
	q.Set("sort", string(params.Sort))

	var resp PostsResponse
	if err := c.get(ctx, "/api/v1/posts", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Post fetches a single post by its upstream id.
func (c *Client) Post(ctx context.Context, postID string) (*Post, error) {
	body, err := c.getRaw(ctx, "/api/v1/posts/"+url.PathEscape(postID), nil)
	if err != nil {
		return nil, err
	}

	// The endpoint returns either {"post": {...}} or the bare post object.
	var env postEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Post != nil {
		return env.Post, nil
	}
	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("decoding post %s: %w", postID, err)
	}
	return &post, nil
}

// CommentsParams are the query parameters for the comments endpoint.
type CommentsParams struct {
	Limit  int
	Offset int
}

// Comments fetches a page of comments for a post. Each comment carries its
// nested reply tree.
func (c *Client) Comments(ctx context.Context, postID string, params CommentsParams) (*CommentsResponse, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(params.Limit))
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	var resp CommentsResponse
	if err := c.get(ctx, "/api/v1/posts/"+url.PathEscape(postID)+"/comments", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AgentsParams are the query parameters for the recent-agents endpoint.
type AgentsParams struct {
	Limit int
	Sort  AgentSort
}

// Agents fetches recent agents. The endpoint is not paginated.
func (c *Client) Agents(ctx context.Context, params AgentsParams) (*AgentsResponse, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Sort == "" {
		params.Sort = SortRecent
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(params.Limit))
	q.Set("sort", string(params.Sort))

	var resp AgentsResponse
	if err := c.get(ctx, "/api/v1/agents/recent", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submolts fetches all submolts in a single call.
func (c *Client) Submolts(ctx context.Context) (*SubmoltsResponse, error) {
	var resp SubmoltsResponse
	if err := c.get(ctx, "/api/v1/submolts", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PostURL builds the public Moltbook URL for a post.
func (c *Client) PostURL(postID string) string {
	return c.baseURL + "/post/" + postID
}

// AgentURL builds the public Moltbook URL for an agent.
func (c *Client) AgentURL(agentName string) string {
	return c.baseURL + "/u/" + agentName
}

// SubmoltURL builds the public Moltbook URL for a submolt.
func (c *Client) SubmoltURL(submoltName string) string {
	return c.baseURL + "/m/" + submoltName
}

// get issues a rate-limited GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// getRaw issues a rate-limited GET and returns the response body.
// Non-2xx responses become an *UpstreamError; the client never retries.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("moltbook request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{
			Status: resp.StatusCode,
			Reason: http.StatusText(resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}
