// Package wordpiece implements a BERT-style WordPiece tokenizer over a
// vocab.txt file (one token per line, id = line index).
package wordpiece

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/nyaya/ai"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Special tokens every vocabulary must contain.
const (
	UnknownToken  = "[UNK]"
	ClassifyToken = "[CLS]"
	SeparateToken = "[SEP]"

	continuationPrefix = "##"
	maxWordRunes       = 100
)

// ErrInvalidUTF8 is returned by Tokenize for malformed input.
var ErrInvalidUTF8 = errors.New("wordpiece: invalid UTF-8 input")

// Tokenizer implements ai.Tokenizer. It is immutable and safe for concurrent use.
type Tokenizer struct {
	vocab     map[string]int
	lowercase bool
	unk       int
	cls       int
	sep       int
	version   string
}

var _ ai.Tokenizer = (*Tokenizer)(nil)

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithLowercase toggles case folding and accent stripping. Default true.
func WithLowercase(lower bool) Option {
	return func(t *Tokenizer) {
		t.lowercase = lower
	}
}

// LoadVocab reads a vocab.txt file.
func LoadVocab(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordpiece: open vocab: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wordpiece: read vocab: %w", err)
	}
	return tokens, nil
}

// Load reads the vocabulary at path and builds a Tokenizer.
func Load(path string, opts ...Option) (*Tokenizer, error) {
	tokens, err := LoadVocab(path)
	if err != nil {
		return nil, err
	}
	return New(tokens, opts...)
}

// New builds a Tokenizer where tokens[i] has id i. The vocabulary must
// contain [UNK], [CLS] and [SEP].
func New(tokens []string, opts ...Option) (*Tokenizer, error) {
	t := &Tokenizer{
		vocab:     make(map[string]int, len(tokens)),
		lowercase: true,
	}
	for _, opt := range opts {
		opt(t)
	}

	h := sha256.New()
	for i, tok := range tokens {
		if _, dup := t.vocab[tok]; !dup {
			t.vocab[tok] = i
		}
		h.Write([]byte(tok))
		h.Write([]byte{'\n'})
	}

	for _, special := range []struct {
		token string
		id    *int
	}{
		{UnknownToken, &t.unk},
		{ClassifyToken, &t.cls},
		{SeparateToken, &t.sep},
	} {
		id, ok := t.vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ai.ErrInvalidVocabulary, special.token)
		}
		*special.id = id
	}

	t.version = "wordpiece-" + hex.EncodeToString(h.Sum(nil))[:12]
	if !t.lowercase {
		t.version += "-cased"
	}
	return t, nil
}

// Version implements ai.Tokenizer.
func (t *Tokenizer) Version() string {
	return t.version
}

// Size returns the number of distinct tokens.
func (t *Tokenizer) Size() int {
	return len(t.vocab)
}

// Tokenize implements ai.Tokenizer. The result is wrapped in [CLS] ... [SEP].
func (t *Tokenizer) Tokenize(text string) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}

	ids := []int{t.cls}
	for _, word := range t.basicTokens(text) {
		ids = t.appendWordPieces(ids, word)
	}
	return append(ids, t.sep), nil
}

// basicTokens cleans text, splits on whitespace and punctuation, and applies
// case folding when enabled.
func (t *Tokenizer) basicTokens(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == utf8.RuneError || isControl(r):
			continue
		case isWhitespace(r):
			b.WriteByte(' ')
		case isCJK(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	var out []string
	for _, word := range strings.Fields(b.String()) {
		if t.lowercase {
			word = stripAccents(strings.ToLower(word))
		}
		out = append(out, splitPunctuation(word)...)
	}
	return out
}

// appendWordPieces performs greedy longest-match-first segmentation of word.
// A word that cannot be fully segmented becomes a single [UNK].
func (t *Tokenizer) appendWordPieces(ids []int, word string) []int {
	chars := []rune(word)
	if len(chars) > maxWordRunes {
		return append(ids, t.unk)
	}

	var pieces []int
	for start := 0; start < len(chars); {
		end := len(chars)
		found := -1
		for start < end {
			sub := string(chars[start:end])
			if start > 0 {
				sub = continuationPrefix + sub
			}
			if id, ok := t.vocab[sub]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return append(ids, t.unk)
		}
		pieces = append(pieces, found)
		start = end
	}
	return append(ids, pieces...)
}

func stripAccents(s string) string {
	// Transformers carry state, so each call builds its own chain.
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return out
}

func splitPunctuation(word string) []string {
	var out []string
	start := -1
	for i, r := range word {
		if isPunctuation(r) {
			if start >= 0 {
				out = append(out, word[start:i])
				start = -1
			}
			out = append(out, string(r))
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, word[start:])
	}
	return out
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf)
}

// isPunctuation treats all non-letter/number ASCII as punctuation, like BERT.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
