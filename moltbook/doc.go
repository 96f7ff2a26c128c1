// Package moltbook provides a rate-limited read client for the Moltbook
// HTTP API. All requests against one Client share a single minimum
// inter-request interval; retry policy is deliberately left to callers.
package moltbook
