package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

var _ storage.PostRepository = (*Store)(nil)

// refValue converts an optional foreign-key reference for binding.
func refValue(id *core.ID) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}

// UpsertPost looks the post up by moltbook_id and either overwrites its
// mutable fields or inserts a new row. Updates deliberately leave the
// embedding and content_hash columns untouched so a re-ingestion cannot
// wipe previously computed vectors.
func (s *Store) UpsertPost(ctx context.Context, post *core.Post) (core.ID, bool, error) {
	if err := core.ValidatePost(post); err != nil {
		return 0, false, err
	}

	var id core.ID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM posts WHERE moltbook_id = ?`, post.MoltbookID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO posts (moltbook_id, title, content, author_id, submolt_id, upvotes, downvotes, comment_count, created_at, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			post.MoltbookID, post.Title, post.Content,
			refValue(post.AuthorID), refValue(post.SubmoltID),
			post.Upvotes, post.Downvotes, post.CommentCount,
			millis(post.CreatedAt), millis(s.now()),
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("inserting post %s: %w", post.MoltbookID, err)
		}
		return id, true, nil
	case err != nil:
		return 0, false, fmt.Errorf("looking up post %s: %w", post.MoltbookID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, content = ?, upvotes = ?, downvotes = ?, comment_count = ?, created_at = ?
		WHERE id = ?`,
		post.Title, post.Content, post.Upvotes, post.Downvotes,
		post.CommentCount, millis(post.CreatedAt), id)
	if err != nil {
		return 0, false, fmt.Errorf("updating post %s: %w", post.MoltbookID, err)
	}
	return id, false, nil
}

// GetPostByMoltbookID retrieves a post, including its embedding, by its
// external id.
func (s *Store) GetPostByMoltbookID(ctx context.Context, moltbookID string) (*core.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, moltbook_id, title, content, author_id, submolt_id, upvotes, downvotes, comment_count, created_at, ingested_at, embedding, content_hash
		FROM posts WHERE moltbook_id = ?`, moltbookID)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading post %s: %w", moltbookID, err)
	}
	return post, nil
}

// SetPostEmbedding stores the embedding vector and the content hash of the
// text it was generated from.
func (s *Store) SetPostEmbedding(ctx context.Context, id core.ID, vector []float32, contentHash uint64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET embedding = ?, content_hash = ? WHERE id = ?`,
		storage.MarshalVector(vector), int64(contentHash), int64(id))
	if err != nil {
		return fmt.Errorf("storing embedding for post %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PostEmbeddingState reports whether the post has an embedding and the
// content hash it was generated from.
func (s *Store) PostEmbeddingState(ctx context.Context, id core.ID) (bool, uint64, error) {
	var (
		hasEmbedding bool
		contentHash  sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding IS NOT NULL, content_hash FROM posts WHERE id = ?`, int64(id),
	).Scan(&hasEmbedding, &contentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, storage.ErrNotFound
	}
	if err != nil {
		return false, 0, fmt.Errorf("reading embedding state for post %d: %w", id, err)
	}
	return hasEmbedding, uint64(contentHash.Int64), nil
}

// ListPosts returns posts ordered by internal id for batch iteration.
func (s *Store) ListPosts(ctx context.Context, offset, limit int, missingEmbeddings bool) ([]*core.Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	query := `
		SELECT id, moltbook_id, title, content, author_id, submolt_id, upvotes, downvotes, comment_count, created_at, ingested_at, embedding, content_hash
		FROM posts`
	if missingEmbeddings {
		query += ` WHERE embedding IS NULL`
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []*core.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// CountPosts returns the number of stored posts, optionally restricted to
// those without an embedding.
func (s *Store) CountPosts(ctx context.Context, missingEmbeddings bool) (int, error) {
	query := `SELECT COUNT(*) FROM posts`
	if missingEmbeddings {
		query += ` WHERE embedding IS NULL`
	}
	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// rowScanner abstracts sql.Row and sql.Rows for scanPost.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*core.Post, error) {
	var (
		post        core.Post
		authorID    sql.NullInt64
		submoltID   sql.NullInt64
		createdAt   int64
		ingestedAt  int64
		embedding   []byte
		contentHash sql.NullInt64
	)
	err := row.Scan(&post.Id, &post.MoltbookID, &post.Title, &post.Content,
		&authorID, &submoltID, &post.Upvotes, &post.Downvotes, &post.CommentCount,
		&createdAt, &ingestedAt, &embedding, &contentHash)
	if err != nil {
		return nil, err
	}

	if authorID.Valid {
		id := core.ID(authorID.Int64)
		post.AuthorID = &id
	}
	if submoltID.Valid {
		id := core.ID(submoltID.Int64)
		post.SubmoltID = &id
	}
	post.CreatedAt = fromMillis(createdAt)
	post.IngestedAt = fromMillis(ingestedAt)
	post.ContentHash = uint64(contentHash.Int64)

	vector, err := storage.UnmarshalVector(embedding)
	if err != nil {
		return nil, err
	}
	post.Vector = vector
	return &post, nil
}
