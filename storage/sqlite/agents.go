package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moltspace/moltspace/core"
	"github.com/moltspace/moltspace/storage"
)

var _ storage.AgentRepository = (*Store)(nil)

// UpsertAgent looks the agent up by moltbook_id and either overwrites its
// mutable fields or inserts a new row. Reputation counts are overwritten
// with the latest observed values, never accumulated.
func (s *Store) UpsertAgent(ctx context.Context, agent *core.Agent) (core.ID, bool, error) {
	if err := core.ValidateAgent(agent); err != nil {
		return 0, false, err
	}

	now := s.now()

	var id core.ID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM agents WHERE moltbook_id = ?`, agent.MoltbookID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO agents (moltbook_id, name, description, karma, follower_count, created_at, last_seen_at, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			agent.MoltbookID, agent.Name, nullString(agent.Description),
			agent.Karma, agent.FollowerCount,
			millis(agent.CreatedAt), millis(now), millis(now),
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("inserting agent %s: %w", agent.MoltbookID, err)
		}
		return id, true, nil
	case err != nil:
		return 0, false, fmt.Errorf("looking up agent %s: %w", agent.MoltbookID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE agents
		SET name = ?, description = ?, karma = ?, follower_count = ?, created_at = ?, last_seen_at = ?
		WHERE id = ?`,
		agent.Name, nullString(agent.Description), agent.Karma, agent.FollowerCount,
		millis(agent.CreatedAt), millis(now), id)
	if err != nil {
		return 0, false, fmt.Errorf("updating agent %s: %w", agent.MoltbookID, err)
	}
	return id, false, nil
}

// EnsureAgent is a single atomic upsert keyed on moltbook_id, used for lazy
// agent creation when a post or comment references an author outside the
// pre-fetched batch. Two concurrent calls for the same new author must both
// succeed, so this is insert-on-conflict-update rather than look-then-write.
func (s *Store) EnsureAgent(ctx context.Context, moltbookID, name string) (core.ID, error) {
	if moltbookID == "" {
		return 0, core.ErrEmptyMoltbookID
	}

	now := millis(s.now())

	var id core.ID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO agents (moltbook_id, name, created_at, last_seen_at, ingested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(moltbook_id) DO UPDATE SET
			name = excluded.name,
			last_seen_at = excluded.last_seen_at
		RETURNING id`,
		moltbookID, name, now, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring agent %s: %w", moltbookID, err)
	}
	return id, nil
}

// GetAgentByMoltbookID retrieves an agent by its external id.
func (s *Store) GetAgentByMoltbookID(ctx context.Context, moltbookID string) (*core.Agent, error) {
	var (
		agent       core.Agent
		description sql.NullString
		createdAt   int64
		lastSeenAt  sql.NullInt64
		ingestedAt  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, moltbook_id, name, description, karma, follower_count, created_at, last_seen_at, ingested_at
		FROM agents WHERE moltbook_id = ?`, moltbookID,
	).Scan(&agent.Id, &agent.MoltbookID, &agent.Name, &description,
		&agent.Karma, &agent.FollowerCount, &createdAt, &lastSeenAt, &ingestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading agent %s: %w", moltbookID, err)
	}

	agent.Description = description.String
	agent.CreatedAt = fromMillis(createdAt)
	agent.LastSeenAt = nullMillis(lastSeenAt)
	agent.IngestedAt = fromMillis(ingestedAt)
	return &agent, nil
}

// CountAgents returns the number of stored agents.
func (s *Store) CountAgents(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents`).Scan(&count)
	return count, err
}
