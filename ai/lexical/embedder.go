// Package lexical implements the token-id encoder: a text's vector is its
// token id sequence, zero-padded or truncated to a fixed dimension.
//
// The encoder is deterministic and depends only on its tokenizer. It carries
// no semantic model; similar vectors mean overlapping tokens at the same
// positions.
package lexical

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/nyaya/ai"
)

// Embedder implements ai.Embedder over an ai.Tokenizer.
type Embedder struct {
	tokenizer ai.Tokenizer
	dim       int
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates an encoder producing vectors of length dim.
// A nil tokenizer yields an encoder that fails with ai.ErrEmbedderUnavailable.
func NewEmbedder(tokenizer ai.Tokenizer, dim int) *Embedder {
	return &Embedder{tokenizer: tokenizer, dim: dim}
}

// EmbedText implements ai.Embedder.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.tokenizer == nil {
		return nil, ai.ErrEmbedderUnavailable
	}
	vec := make([]float32, e.dim)
	if strings.TrimSpace(text) == "" {
		return vec, nil
	}

	ids, err := e.tokenizer.Tokenize(text)
	if err != nil {
		return vec, fmt.Errorf("%w: %w", ai.ErrEncodingFailed, err)
	}
	for i := 0; i < len(ids) && i < e.dim; i++ {
		vec[i] = float32(ids[i])
	}
	return vec, nil
}

// EmbedTexts implements ai.Embedder. It always returns len(texts) vectors
// unless the encoder is unavailable or ctx is cancelled.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if e.tokenizer == nil {
		return nil, ai.ErrEmbedderUnavailable
	}

	out := make([][]float32, len(texts))
	var degraded *ai.DegradedError
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			if degraded == nil {
				degraded = &ai.DegradedError{Err: err}
			}
			degraded.Indices = append(degraded.Indices, i)
		}
		out[i] = vec
	}
	if degraded != nil {
		return out, degraded
	}
	return out, nil
}

// Dimension implements ai.Embedder.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Version implements ai.Embedder.
func (e *Embedder) Version() string {
	tok := "none"
	if e.tokenizer != nil {
		tok = e.tokenizer.Version()
	}
	return fmt.Sprintf("%s/d%d", tok, e.dim)
}
