package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, TokenizerWordPiece, cfg.Tokenizer)
	assert.Equal(t, "vocab.txt", cfg.VocabPath)
	assert.Equal(t, 128, cfg.MaxLength)
	assert.True(t, cfg.Lowercase)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, TokenizerWordPiece, cfg.Tokenizer)
		assert.Equal(t, 128, cfg.MaxLength)
	})

	t.Run("with bpe tokenizer", func(t *testing.T) {
		cfg := NewConfig(
			WithTokenizer(TokenizerBPE),
			WithVocabPath("/data/cl100k_base.tiktoken"),
		)

		assert.Equal(t, TokenizerBPE, cfg.Tokenizer)
		assert.Equal(t, "/data/cl100k_base.tiktoken", cfg.VocabPath)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithVocabPath("/data/vocab.txt"),
			WithMaxLength(64),
			WithLowercase(false),
		)

		assert.Equal(t, "/data/vocab.txt", cfg.VocabPath)
		assert.Equal(t, 64, cfg.MaxLength)
		assert.False(t, cfg.Lowercase)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name      string
		tokenizer string
		expected  string
	}{
		{"already canonical", "wordpiece", "wordpiece"},
		{"upper case", "BPE", "bpe"},
		{"padded", "  WordPiece ", "wordpiece"},
		{"empty defaults to wordpiece", "", "wordpiece"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Tokenizer: tt.tokenizer, VocabPath: " vocab.txt "}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.Tokenizer)
			assert.Equal(t, "vocab.txt", cfg.VocabPath)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{Tokenizer: "BPE", VocabPath: "ranks.tiktoken", MaxLength: 128}

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, TokenizerBPE, cfg.Tokenizer)
	})

	t.Run("unknown tokenizer", func(t *testing.T) {
		cfg := &Config{Tokenizer: "sentencepiece", VocabPath: "x", MaxLength: 128}

		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrUnknownTokenizer)
	})

	t.Run("missing vocab path", func(t *testing.T) {
		cfg := &Config{Tokenizer: TokenizerWordPiece, MaxLength: 128}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "VocabPath")
	})

	t.Run("max length too low", func(t *testing.T) {
		cfg := &Config{VocabPath: "vocab.txt", MaxLength: 0}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MaxLength")
	})

	t.Run("max length too high", func(t *testing.T) {
		cfg := &Config{VocabPath: "vocab.txt", MaxLength: 8193}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MaxLength")
	})

	t.Run("max length at boundaries", func(t *testing.T) {
		cfg := &Config{VocabPath: "vocab.txt", MaxLength: 1}
		assert.NoError(t, cfg.Validate())

		cfg.MaxLength = 8192
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfigOptions(t *testing.T) {
	t.Run("WithTokenizer", func(t *testing.T) {
		cfg := &Config{}
		WithTokenizer("bpe")(cfg)

		assert.Equal(t, "bpe", cfg.Tokenizer)
	})

	t.Run("WithVocabPath", func(t *testing.T) {
		cfg := &Config{}
		WithVocabPath("/tmp/vocab.txt")(cfg)

		assert.Equal(t, "/tmp/vocab.txt", cfg.VocabPath)
	})

	t.Run("WithMaxLength", func(t *testing.T) {
		cfg := &Config{}
		WithMaxLength(32)(cfg)

		assert.Equal(t, 32, cfg.MaxLength)
	})

	t.Run("WithLowercase", func(t *testing.T) {
		cfg := &Config{}
		WithLowercase(true)(cfg)

		assert.True(t, cfg.Lowercase)
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	// Test that NewConfig produces a valid configuration
	cfg := NewConfig()
	err := cfg.Validate()
	require.NoError(t, err)

	// Test that DefaultConfig produces a valid configuration
	cfg = DefaultConfig()
	err = cfg.Validate()
	require.NoError(t, err)
}
