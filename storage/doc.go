// Package storage defines the persistence interfaces for ingested Moltbook
// entities. Backends live in subpackages; the SQLite backend in
// storage/sqlite is the reference implementation.
//
// Every write path is an idempotent upsert keyed on the upstream
// moltbook_id, so re-ingesting the same snapshot never creates duplicate
// rows.
package storage
