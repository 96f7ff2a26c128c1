package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

var _ storage.CommentRepository = (*Store)(nil)

// UpsertComment looks the comment up by moltbook_id and either overwrites
// its mutable fields or inserts a new row with the given parent reference.
func (s *Store) UpsertComment(ctx context.Context, comment *core.Comment) (core.ID, bool, error) {
	if err := core.ValidateComment(comment); err != nil {
		return 0, false, err
	}

	var id core.ID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM comments WHERE moltbook_id = ?`, comment.MoltbookID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO comments (moltbook_id, post_id, parent_id, content, author_id, upvotes, downvotes, created_at, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			comment.MoltbookID, int64(comment.PostID), refValue(comment.ParentID),
			comment.Content, int64(comment.AuthorID),
			comment.Upvotes, comment.Downvotes,
			millis(comment.CreatedAt), millis(s.now()),
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("inserting comment %s: %w", comment.MoltbookID, err)
		}
		return id, true, nil
	case err != nil:
		return 0, false, fmt.Errorf("looking up comment %s: %w", comment.MoltbookID, err)
	}

	// Parent and post references are immutable once stored; only the body
	// and vote counts drift between snapshots.
	_, err = s.db.ExecContext(ctx, `
		UPDATE comments
		SET content = ?, upvotes = ?, downvotes = ?, created_at = ?
		WHERE id = ?`,
		comment.Content, comment.Upvotes, comment.Downvotes,
		millis(comment.CreatedAt), id)
	if err != nil {
		return 0, false, fmt.Errorf("updating comment %s: %w", comment.MoltbookID, err)
	}
	return id, false, nil
}

// GetCommentByMoltbookID retrieves a comment by its external id.
func (s *Store) GetCommentByMoltbookID(ctx context.Context, moltbookID string) (*core.Comment, error) {
	var (
		comment    core.Comment
		parentID   sql.NullInt64
		createdAt  int64
		ingestedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, moltbook_id, post_id, parent_id, content, author_id, upvotes, downvotes, created_at, ingested_at
		FROM comments WHERE moltbook_id = ?`, moltbookID,
	).Scan(&comment.Id, &comment.MoltbookID, &comment.PostID, &parentID,
		&comment.Content, &comment.AuthorID, &comment.Upvotes, &comment.Downvotes,
		&createdAt, &ingestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading comment %s: %w", moltbookID, err)
	}

	if parentID.Valid {
		id := core.ID(parentID.Int64)
		comment.ParentID = &id
	}
	comment.CreatedAt = fromMillis(createdAt)
	comment.IngestedAt = fromMillis(ingestedAt)
	return &comment, nil
}

// CountComments returns the number of stored comments.
func (s *Store) CountComments(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&count)
	return count, err
}
