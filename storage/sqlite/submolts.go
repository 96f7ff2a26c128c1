package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

var _ storage.SubmoltRepository = (*Store)(nil)

// UpsertSubmolt looks the submolt up by moltbook_id and either overwrites
// its mutable fields or inserts a new row.
func (s *Store) UpsertSubmolt(ctx context.Context, submolt *core.Submolt) (core.ID, bool, error) {
	if err := core.ValidateSubmolt(submolt); err != nil {
		return 0, false, err
	}

	var lastActivity any
	if !submolt.LastActivityAt.IsZero() {
		lastActivity = millis(submolt.LastActivityAt)
	}

	var id core.ID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM submolts WHERE moltbook_id = ?`, submolt.MoltbookID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO submolts (moltbook_id, name, display_name, description, subscriber_count, created_at, last_activity_at, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			submolt.MoltbookID, submolt.Name, submolt.DisplayName, nullString(submolt.Description),
			submolt.SubscriberCount, millis(submolt.CreatedAt), lastActivity, millis(s.now()),
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("inserting submolt %s: %w", submolt.MoltbookID, err)
		}
		return id, true, nil
	case err != nil:
		return 0, false, fmt.Errorf("looking up submolt %s: %w", submolt.MoltbookID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE submolts
		SET name = ?, display_name = ?, description = ?, subscriber_count = ?, created_at = ?, last_activity_at = ?
		WHERE id = ?`,
		submolt.Name, submolt.DisplayName, nullString(submolt.Description),
		submolt.SubscriberCount, millis(submolt.CreatedAt), lastActivity, id)
	if err != nil {
		return 0, false, fmt.Errorf("updating submolt %s: %w", submolt.MoltbookID, err)
	}
	return id, false, nil
}

// GetSubmoltByMoltbookID retrieves a submolt by its external id.
func (s *Store) GetSubmoltByMoltbookID(ctx context.Context, moltbookID string) (*core.Submolt, error) {
	var (
		submolt      core.Submolt
		description  sql.NullString
		createdAt    int64
		lastActivity sql.NullInt64
		ingestedAt   int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, moltbook_id, name, display_name, description, subscriber_count, created_at, last_activity_at, ingested_at
		FROM submolts WHERE moltbook_id = ?`, moltbookID,
	).Scan(&submolt.Id, &submolt.MoltbookID, &submolt.Name, &submolt.DisplayName,
		&description, &submolt.SubscriberCount, &createdAt, &lastActivity, &ingestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading submolt %s: %w", moltbookID, err)
	}

	submolt.Description = description.String
	submolt.CreatedAt = fromMillis(createdAt)
	submolt.LastActivityAt = nullMillis(lastActivity)
	submolt.IngestedAt = fromMillis(ingestedAt)
	return &submolt, nil
}

// CountSubmolts returns the number of stored submolts.
func (s *Store) CountSubmolts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submolts`).Scan(&count)
	return count, err
}
