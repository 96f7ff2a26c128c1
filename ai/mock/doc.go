// Package mock provides a deterministic ai.Embedder test double.
package mock
