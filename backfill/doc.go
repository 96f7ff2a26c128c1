// Package backfill generates embeddings for posts already in the store,
// outside the bounded embedding stage of a live ingestion run.
//
// This package supports batch processing of posts, concurrent workers,
// progress tracking, retry logic with exponential backoff, and vector
// normalization to ensure compatibility with cosine similarity search.
package backfill
