package sqlite

import (
	"context"

	"github.com/moltspace/moltspace/storage"
)

var _ storage.TopicRepository = (*Store)(nil)

// CountTopics returns the number of stored topics. Topics are written by
// the downstream clustering stage, never by ingestion.
func (s *Store) CountTopics(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&count)
	return count, err
}

// CountSignals returns the number of stored signal snapshots.
func (s *Store) CountSignals(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals`).Scan(&count)
	return count, err
}
