package mock

import "github.com/poiesic/nyaya/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder and tokenizer instances.
type MockProvider struct {
	embedder  *MockEmbedder
	tokenizer *MockTokenizer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockTokenizer() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		tokenizer: NewMockTokenizer(nil),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, tokenizer *MockTokenizer) ai.Provider {
	return &MockProvider{
		embedder:  embedder,
		tokenizer: tokenizer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Tokenizer returns the mock tokenizer.
func (p *MockProvider) Tokenizer() ai.Tokenizer {
	return p.tokenizer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockTokenizer returns the underlying mock tokenizer for test assertions.
func (p *MockProvider) GetMockTokenizer() *MockTokenizer {
	return p.tokenizer
}
