package mock

import (
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/poiesic/nyaya/ai"
)

// Special token ids used by MockTokenizer, laid out like a BERT vocabulary.
const (
	PadID = 0
	UnkID = 1
	ClsID = 2
	SepID = 3
)

// MockTokenizer is a test double for ai.Tokenizer.
// It splits on anything that is not a letter or digit, lowercases words and
// looks them up in Vocab, wrapping the result in ClsID ... SepID.
type MockTokenizer struct {
	// Vocab maps lowercase words to ids. Unknown words map to UnkID.
	Vocab map[string]int

	// TokenizeFunc is called by Tokenize if set.
	TokenizeFunc func(text string) ([]int, error)

	mu        sync.RWMutex
	callCount atomic.Int64
}

var _ ai.Tokenizer = (*MockTokenizer)(nil)

// NewMockTokenizer creates a mock tokenizer over vocab.
// A nil vocab uses DefaultVocab.
func NewMockTokenizer(vocab map[string]int) *MockTokenizer {
	if vocab == nil {
		vocab = DefaultVocab()
	}
	return &MockTokenizer{Vocab: vocab}
}

// DefaultVocab returns a small legal vocabulary. The id for "theft" is far
// from the other ids so that theft queries separate clearly under cosine.
func DefaultVocab() map[string]int {
	return map[string]int{
		"of":       5,
		"the":      6,
		"a":        7,
		"murder":   8,
		"assault":  9,
		"forgery":  10,
		"vehicle":  11,
		"cheating": 12,
		"property": 13,
		"person":   14,
		"theft":    100,
	}
}

// Tokenize implements ai.Tokenizer.
func (m *MockTokenizer) Tokenize(text string) ([]int, error) {
	m.callCount.Add(1)

	m.mu.RLock()
	fn := m.TokenizeFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(text)
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	ids := make([]int, 0, len(words)+2)
	ids = append(ids, ClsID)
	for _, w := range words {
		id, ok := m.Vocab[w]
		if !ok {
			id = UnkID
		}
		ids = append(ids, id)
	}
	return append(ids, SepID), nil
}

// Version implements ai.Tokenizer.
func (m *MockTokenizer) Version() string {
	return "mock"
}

// SetTokenizeFunc swaps the tokenize behavior while the tokenizer is in use.
func (m *MockTokenizer) SetTokenizeFunc(fn func(text string) ([]int, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TokenizeFunc = fn
}

// CallCount returns the number of times Tokenize was called.
func (m *MockTokenizer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom behavior.
func (m *MockTokenizer) Reset() {
	m.callCount.Store(0)
	m.SetTokenizeFunc(nil)
}
