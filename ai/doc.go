// Package ai provides the text encoding abstractions used by nyaya.
//
// Legal sections and user queries are turned into fixed-length vectors by an
// Embedder, which in turn relies on a Tokenizer backed by a fixed vocabulary.
// The core domain and the search layer depend on these interfaces rather than
// on concrete implementations.
//
// # Interfaces
//
//   - Tokenizer: maps text to integer token ids
//   - Embedder: maps text to a vector of length Dimension()
//   - Provider: aggregates both for initialization and lifecycle management
//
// # Implementation Packages
//
//   - ai/wordpiece: BERT-style uncased WordPiece tokenizer
//   - ai/bpe: byte-pair tokenizer over a tiktoken rank file
//   - ai/lexical: the token-id Embedder and the configured Provider
//   - ai/mock: test doubles for unit testing without vocabulary files
//
// # Error Model
//
// Encoding failures degrade rather than abort. A failed EmbedText returns the
// all-zero vector together with an error wrapping ErrEncodingFailed, and
// EmbedTexts reports failed positions through *DegradedError. Callers decide
// whether a degraded vector is usable. ErrEmbedderUnavailable is the only
// condition under which no vector is returned.
//
// # Configuration
//
// Config is built with functional options:
//
//	cfg := ai.NewConfig(
//	    ai.WithTokenizer(ai.TokenizerWordPiece),
//	    ai.WithVocabPath("/data/vocab.txt"),
//	    ai.WithMaxLength(128),
//	)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package ai
