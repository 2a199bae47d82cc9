// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Tokenizer names accepted by Config.Tokenizer.
const (
	TokenizerWordPiece = "wordpiece"
	TokenizerBPE       = "bpe"
)

// Config holds configuration for the text encoder.
type Config struct {
	// Tokenizer selects the tokenizer implementation.
	// One of "wordpiece" (default) or "bpe".
	Tokenizer string `yaml:"tokenizer"`

	// VocabPath is the tokenizer vocabulary file.
	// A vocab.txt for wordpiece, a .tiktoken rank file for bpe.
	VocabPath string `yaml:"vocab"`

	// MaxLength is the embedding dimension D. Token sequences are
	// zero-padded or truncated to this length.
	// Default: 128
	MaxLength int `yaml:"max_length"`

	// Lowercase folds case and strips accents before wordpiece tokenization.
	// Ignored by bpe.
	// Default: true
	Lowercase bool `yaml:"lowercase"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithTokenizer sets the tokenizer name.
func WithTokenizer(name string) ConfigOption {
	return func(c *Config) {
		c.Tokenizer = name
	}
}

// WithVocabPath sets the vocabulary file path.
func WithVocabPath(path string) ConfigOption {
	return func(c *Config) {
		c.VocabPath = path
	}
}

// WithMaxLength sets the embedding dimension.
func WithMaxLength(n int) ConfigOption {
	return func(c *Config) {
		c.MaxLength = n
	}
}

// WithLowercase toggles case folding for wordpiece.
func WithLowercase(lower bool) ConfigOption {
	return func(c *Config) {
		c.Lowercase = lower
	}
}

// DefaultConfig returns a Config matching a bert-base-uncased vocabulary
// with 128-dimensional output.
func DefaultConfig() *Config {
	return &Config{
		Tokenizer: TokenizerWordPiece,
		VocabPath: "vocab.txt",
		MaxLength: 128,
		Lowercase: true,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithTokenizer("bpe"),
//	    WithVocabPath("/data/cl100k_base.tiktoken"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Tokenizer names are case-insensitive and an empty name means wordpiece.
func (c *Config) Normalize() {
	c.Tokenizer = strings.ToLower(strings.TrimSpace(c.Tokenizer))
	if c.Tokenizer == "" {
		c.Tokenizer = TokenizerWordPiece
	}
	c.VocabPath = strings.TrimSpace(c.VocabPath)
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Tokenizer {
	case TokenizerWordPiece, TokenizerBPE:
	default:
		return fmt.Errorf("ai config: %w: %q", ErrUnknownTokenizer, c.Tokenizer)
	}
	if c.VocabPath == "" {
		return errors.New("ai config: VocabPath is required")
	}
	if c.MaxLength < 1 || c.MaxLength > 8192 {
		return errors.New("ai config: MaxLength must be between 1 and 8192")
	}
	return nil
}
