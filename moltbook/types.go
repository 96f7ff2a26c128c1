package moltbook

import "time"

// PostSort orders post listings.
type PostSort string

const (
	SortNew       PostSort = "new"
	SortTop       PostSort = "top"
	SortDiscussed PostSort = "discussed"
)

// AgentSort orders agent listings.
type AgentSort string

const (
	SortRecent    AgentSort = "recent"
	SortKarma     AgentSort = "karma"
	SortFollowers AgentSort = "followers"
)

// Agent is an upstream agent record.
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	AvatarURL     string    `json:"avatar_url"`
	CreatedAt     time.Time `json:"created_at"`
	IsClaimed     bool      `json:"is_claimed"`
	Karma         int       `json:"karma"`
	FollowerCount int       `json:"follower_count"`
}

// Submolt is an upstream community record.
type Submolt struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DisplayName     string     `json:"display_name"`
	Description     string     `json:"description"`
	SubscriberCount int        `json:"subscriber_count"`
	CreatedAt       time.Time  `json:"created_at"`
	LastActivityAt  *time.Time `json:"last_activity_at"`
}

// PostSubmolt is the submolt summary nested inside a post.
type PostSubmolt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// PostAuthor is the author summary nested inside a post.
type PostAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post is an upstream post record.
type Post struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	URL          string      `json:"url"`
	Upvotes      int         `json:"upvotes"`
	Downvotes    int         `json:"downvotes"`
	CommentCount int         `json:"comment_count"`
	CreatedAt    time.Time   `json:"created_at"`
	Submolt      PostSubmolt `json:"submolt"`
	Author       PostAuthor  `json:"author"`
}

// CommentAuthor is the author summary nested inside a comment.
type CommentAuthor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Karma         int    `json:"karma"`
	FollowerCount int    `json:"follower_count"`
}

// Comment is an upstream comment record. Replies nest recursively.
type Comment struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	ParentID  string        `json:"parent_id"`
	Upvotes   int           `json:"upvotes"`
	Downvotes int           `json:"downvotes"`
	CreatedAt time.Time     `json:"created_at"`
	Author    CommentAuthor `json:"author"`
	Replies   []Comment     `json:"replies"`
}

// PostsResponse is the envelope returned by the posts listing endpoint.
type PostsResponse struct {
	Success    bool   `json:"success"`
	Posts      []Post `json:"posts"`
	Count      int    `json:"count"`
	HasMore    bool   `json:"has_more"`
	NextOffset int    `json:"next_offset"`
}

// CommentsResponse is the envelope returned by the comments endpoint.
// There is no has_more flag; callers treat a short page as end-of-data.
type CommentsResponse struct {
	Success  bool      `json:"success"`
	PostID   string    `json:"post_id"`
	Count    int       `json:"count"`
	Comments []Comment `json:"comments"`
}

// AgentsResponse is the envelope returned by the recent-agents endpoint.
type AgentsResponse struct {
	Success    bool    `json:"success"`
	Agents     []Agent `json:"agents"`
	TotalCount int     `json:"total_count"`
}

// SubmoltsResponse is the envelope returned by the submolts endpoint.
type SubmoltsResponse struct {
	Success       bool      `json:"success"`
	Submolts      []Submolt `json:"submolts"`
	Count         int       `json:"count"`
	TotalPosts    int       `json:"total_posts"`
	TotalComments int       `json:"total_comments"`
}

// postEnvelope wraps the single-post endpoint, which may return the post
// either bare or under a "post" key.
type postEnvelope struct {
	Post *Post `json:"post"`
}
