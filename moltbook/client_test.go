package moltbook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient returns a Client against the given server with rate limiting
// disabled so tests run instantly.
func testClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, WithRateLimitInterval(0), WithHTTPClient(srv.Client()))
}

func TestClient_Posts(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/posts", r.URL.Path)
		gotQuery = map[string]string{
			"limit":  r.URL.Query().Get("limit"),
			"offset": r.URL.Query().Get("offset"),
			"sort":   r.URL.Query().Get("sort"),
		}
		json.NewEncoder(w).Encode(PostsResponse{
			Success:    true,
			Posts:      []Post{{ID: "p1", Title: "hello"}},
			Count:      1,
			HasMore:    true,
			NextOffset: 100,
		})
	}))
	defer srv.Close()

	resp, err := testClient(srv).Posts(context.Background(), PostsParams{Limit: 100, Offset: 0, Sort: SortNew})
	require.NoError(t, err)

	assert.Equal(t, "100", gotQuery["limit"])
	assert.Equal(t, "0", gotQuery["offset"])
	assert.Equal(t, "new", gotQuery["sort"])
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "p1", resp.Posts[0].ID)
	assert.True(t, resp.HasMore)
	assert.Equal(t, 100, resp.NextOffset)
}

func TestClient_SetsHeaders(t *testing.T) {
	var accept, ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		ua = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(SubmoltsResponse{Success: true})
	}))
	defer srv.Close()

	_, err := testClient(srv).Submolts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "application/json", accept)
	assert.Contains(t, ua, "MoltSpace/1.0")
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many molts", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv).Posts(context.Background(), PostsParams{})
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.Status)
}

func TestClient_PostEnvelopeVariants(t *testing.T) {
	// The single-post endpoint may wrap the post or return it bare.
	for _, wrapped := range []bool{true, false} {
		t.Run(fmt.Sprintf("wrapped=%v", wrapped), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/v1/posts/p42", r.URL.Path)
				if wrapped {
					json.NewEncoder(w).Encode(map[string]any{"post": Post{ID: "p42", Title: "wrapped"}})
					return
				}
				json.NewEncoder(w).Encode(Post{ID: "p42", Title: "bare"})
			}))
			defer srv.Close()

			post, err := testClient(srv).Post(context.Background(), "p42")
			require.NoError(t, err)
			assert.Equal(t, "p42", post.ID)
		})
	}
}

func TestClient_CommentsOmitsZeroOffset(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(CommentsResponse{Success: true, PostID: "p1"})
	}))
	defer srv.Close()

	_, err := testClient(srv).Comments(context.Background(), "p1", CommentsParams{Limit: 100})
	require.NoError(t, err)
	assert.NotContains(t, rawQuery, "offset", "offset 0 should be omitted")
}

func TestClient_NestedReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CommentsResponse{
			Success: true,
			Comments: []Comment{
				{
					ID:     "c1",
					Author: CommentAuthor{ID: "a1", Name: "crab"},
					Replies: []Comment{
						{ID: "c2", Author: CommentAuthor{ID: "a2", Name: "lobster"}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	resp, err := testClient(srv).Comments(context.Background(), "p1", CommentsParams{})
	require.NoError(t, err)
	require.Len(t, resp.Comments, 1)
	require.Len(t, resp.Comments[0].Replies, 1)
	assert.Equal(t, "c2", resp.Comments[0].Replies[0].ID)
}
