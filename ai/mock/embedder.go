package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"
)

// Embedder is a test double for ai.Embedder. It allows custom behavior
// injection via function fields; without them it produces deterministic
// vectors derived from the text, so the same text always embeds the same.
type Embedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of generated vectors. Default 1536.
	Dimensions int

	callCount atomic.Int64
}

// NewEmbedder creates a mock embedder with default deterministic behavior.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// EmbedText generates a deterministic embedding based on the text hash.
func (m *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text, m.dims()), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, m.dims())
	}
	return vectors, nil
}

// CallCount returns the number of times any embed method was called.
func (m *Embedder) CallCount() int {
	return int(m.callCount.Load())
}

func (m *Embedder) dims() int {
	if m.Dimensions > 0 {
		return m.Dimensions
	}
	return 1536
}

// deterministicVector creates a pseudo-random but reproducible vector from
// text using an FNV hash seeded LCG.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return vector
}
