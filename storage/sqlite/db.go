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


// Package sqlite implements the storage repositories on SQLite.
// Timestamps are stored as Unix milliseconds, embedding vectors as BLOBs.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// schema creates every table the pipeline writes plus the downstream
// topic/signal tables it only guarantees inputs for.
const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id             INTEGER PRIMARY KEY,
	moltbook_id    TEXT    NOT NULL UNIQUE,
	name           TEXT    NOT NULL,
	description    TEXT,
	karma          INTEGER NOT NULL DEFAULT 0,
	follower_count INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL,
	last_seen_at   INTEGER,
	ingested_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS agents_name_idx ON agents(name);

CREATE TABLE IF NOT EXISTS submolts (
	id               INTEGER PRIMARY KEY,
	moltbook_id      TEXT    NOT NULL UNIQUE,
	name             TEXT    NOT NULL,
	display_name     TEXT    NOT NULL,
	description      TEXT,
	subscriber_count INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	last_activity_at INTEGER,
	ingested_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS submolts_name_idx ON submolts(name);

CREATE TABLE IF NOT EXISTS posts (
	id            INTEGER PRIMARY KEY,
	moltbook_id   TEXT    NOT NULL UNIQUE,
	title         TEXT    NOT NULL,
	content       TEXT    NOT NULL,
	author_id     INTEGER REFERENCES agents(id),
	submolt_id    INTEGER REFERENCES submolts(id),
	upvotes       INTEGER NOT NULL DEFAULT 0,
	downvotes     INTEGER NOT NULL DEFAULT 0,
	comment_count INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	ingested_at   INTEGER NOT NULL,
	embedding     BLOB,
	content_hash  INTEGER
);
CREATE INDEX IF NOT EXISTS posts_author_id_idx ON posts(author_id);
CREATE INDEX IF NOT EXISTS posts_submolt_id_idx ON posts(submolt_id);
CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts(created_at);

CREATE TABLE IF NOT EXISTS comments (
	id          INTEGER PRIMARY KEY,
	moltbook_id TEXT    NOT NULL UNIQUE,
	post_id     INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	parent_id   INTEGER REFERENCES comments(id),
	content     TEXT    NOT NULL,
	author_id   INTEGER NOT NULL REFERENCES agents(id),
	upvotes     INTEGER NOT NULL DEFAULT 0,
	downvotes   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	ingested_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS comments_post_id_idx ON comments(post_id);
CREATE INDEX IF NOT EXISTS comments_parent_id_idx ON comments(parent_id);
CREATE INDEX IF NOT EXISTS comments_author_id_idx ON comments(author_id);

CREATE TABLE IF NOT EXISTS topics (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	centroid    BLOB,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS topics_name_idx ON topics(name);

CREATE TABLE IF NOT EXISTS topic_posts (
	topic_id    INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	post_id     INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	assigned_at INTEGER NOT NULL,
	PRIMARY KEY (topic_id, post_id)
);

CREATE TABLE IF NOT EXISTS signals (
	id              INTEGER PRIMARY KEY,
	topic_id        INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	timestamp       INTEGER NOT NULL,
	velocity        INTEGER NOT NULL DEFAULT 0,
	novelty         INTEGER NOT NULL DEFAULT 0,
	polarization    INTEGER NOT NULL DEFAULT 0,
	influence       INTEGER NOT NULL DEFAULT 0,
	composite_score INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS signals_topic_id_idx ON signals(topic_id);
CREATE INDEX IF NOT EXISTS signals_timestamp_idx ON signals(timestamp);
`

// Store implements every storage repository on a single SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (and if necessary bootstraps) a SQLite database at path.
// Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL for concurrent reads, foreign keys for referential integrity.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite-store"),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// millis converts a time to its stored Unix-millisecond form.
// The zero time maps to 0.
func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// fromMillis converts a stored Unix-millisecond value back to a time.
func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// nullMillis converts a nullable stored value back to a time.
func nullMillis(ms sql.NullInt64) time.Time {
	if !ms.Valid {
		return time.Time{}
	}
	return fromMillis(ms.Int64)
}

// nullString maps "" to NULL so optional text columns stay NULL rather
// than accumulating empty strings.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
