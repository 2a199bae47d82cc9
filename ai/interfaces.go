package ai

import "context"

// Tokenizer maps text to integer token ids using a fixed vocabulary.
// Implementations must be thread-safe for concurrent use.
type Tokenizer interface {
	// Tokenize converts text into token ids, including any special
	// tokens the vocabulary wraps sequences with.
	// Returns an error if the input cannot be tokenized.
	Tokenize(text string) ([]int, error)

	// Version fingerprints the tokenizer and its vocabulary. Two tokenizers
	// with the same version produce the same ids for every input.
	Version() string
}

// Embedder generates fixed-length vectors from text for similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector for a single text string.
	// A degraded (all-zero) vector may be returned together with an error
	// wrapping ErrEncodingFailed. ErrEmbedderUnavailable means no vector
	// could be produced at all.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vectors for multiple text strings in a batch.
	// The returned slice contains vectors in the same order as the input texts.
	// Degraded items are reported through *DegradedError.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the length of every vector returned.
	Dimension() int

	// Version identifies the encoder configuration that produced a vector.
	Version() string
}

// Provider aggregates the encoder services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Tokenizer returns the tokenizer backing the embedder.
	Tokenizer() Tokenizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
