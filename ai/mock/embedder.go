package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/nyaya/ai"
)

// DefaultDimension is the vector length produced by MockEmbedder.
const DefaultDimension = 128

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, EmbedText is applied to each text.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dim is the vector length. Zero means DefaultDimension.
	Dim int

	callCount atomic.Int64
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockEmbedder().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dim: DefaultDimension}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	// Default: generate deterministic vector from text hash
	return generateDeterministicVector(text, m.Dimension()), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
// Errors from EmbedTextFunc are collected into an *ai.DegradedError.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.EmbedTextsFunc != nil {
		m.callCount.Add(1)
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	var degraded *ai.DegradedError
	for i, text := range texts {
		vec, err := m.EmbedText(ctx, text)
		if err != nil {
			if degraded == nil {
				degraded = &ai.DegradedError{Err: err}
			}
			degraded.Indices = append(degraded.Indices, i)
			vec = make([]float32, m.Dimension())
		}
		embeddings[i] = vec
	}
	if degraded != nil {
		return embeddings, degraded
	}
	return embeddings, nil
}

// Dimension returns the configured vector length.
func (m *MockEmbedder) Dimension() int {
	if m.Dim <= 0 {
		return DefaultDimension
	}
	return m.Dim
}

// Version identifies the mock encoder.
func (m *MockEmbedder) Version() string {
	return fmt.Sprintf("mock/d%d", m.Dimension())
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
