package lexical

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/ai/bpe"
	"github.com/poiesic/nyaya/ai/wordpiece"
)

// Provider implements ai.Provider by loading the configured tokenizer once.
type Provider struct {
	tokenizer ai.Tokenizer
	embedder  *Embedder
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider validates config and loads its vocabulary.
// If config is nil, uses ai.DefaultConfig().
func NewProvider(config *ai.Config) (*Provider, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		tok ai.Tokenizer
		err error
	)
	switch config.Tokenizer {
	case ai.TokenizerBPE:
		tok, err = bpe.Load(config.VocabPath)
	default:
		tok, err = wordpiece.Load(config.VocabPath, wordpiece.WithLowercase(config.Lowercase))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s tokenizer: %w", config.Tokenizer, err)
	}

	slog.Debug("tokenizer loaded", "tokenizer", config.Tokenizer, "vocab", config.VocabPath, "version", tok.Version())
	return NewProviderWithTokenizer(tok, config.MaxLength), nil
}

// NewProviderWithTokenizer wraps an already loaded tokenizer.
func NewProviderWithTokenizer(tok ai.Tokenizer, dim int) *Provider {
	return &Provider{
		tokenizer: tok,
		embedder:  NewEmbedder(tok, dim),
	}
}

// Embedder returns the token-id encoder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Tokenizer returns the loaded tokenizer.
func (p *Provider) Tokenizer() ai.Tokenizer {
	return p.tokenizer
}

// Close is a no-op; vocabularies live in memory.
func (p *Provider) Close() error {
	return nil
}
