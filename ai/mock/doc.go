// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Tokenizer, ai.Embedder
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// vocabulary files and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Real lexical encoder over a tiny vocabulary
//	tok := mock.NewMockTokenizer(mock.DefaultVocab())
//	embedder := lexical.NewEmbedder(tok, 128)
//
//	// Inject a tokenizer failure
//	tok.TokenizeFunc = func(text string) ([]int, error) {
//	    return nil, errors.New("boom")
//	}
//
//	// Check call counts
//	count := tok.CallCount()
//
// # Default Behavior
//
//   - MockTokenizer: word lookup in a vocabulary map, wrapped in CLS/SEP ids
//   - MockEmbedder: deterministic vectors based on text hash
//   - MockProvider: aggregates mock embedder and tokenizer
package mock
