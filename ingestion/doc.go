// Package ingestion implements the Moltbook ingestion pipeline: paginated
// fetching, entity reconciliation into the store, comment-tree flattening,
// and the batch job that sequences the stages.
//
// The pipeline is deliberately single-flow: the upstream API has one shared
// rate limit, so pages, per-post comment fetches, and embedding calls all
// run sequentially. Entity-level failures never abort the batch; the job
// always returns a full report with an error list, and "succeeded with
// errors" is the common case.
package ingestion
