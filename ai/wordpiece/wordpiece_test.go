package wordpiece

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/nyaya/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVocab = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]",
	"the", "theft", "of", "vehicle",
	"un", "##want", "##ed", ",",
	"cafe", "murder", "!",
}

func newTestTokenizer(t *testing.T, opts ...Option) *Tokenizer {
	t.Helper()
	tok, err := New(testVocab, opts...)
	require.NoError(t, err)
	return tok
}

func TestTokenize(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []struct {
		name string
		text string
		want []int
	}{
		{"simple words", "Theft of Vehicle", []int{2, 5, 6, 7, 3}},
		{"subwords and punctuation", "unwanted, theft!", []int{2, 8, 9, 10, 11, 5, 14, 3}},
		{"accents stripped", "Café", []int{2, 12, 3}},
		{"unknown word", "xyz", []int{2, 1, 3}},
		{"partial match is unknown", "unwantedx", []int{2, 1, 3}},
		{"empty", "", []int{2, 3}},
		{"tabs and newlines split", "theft\tof\nvehicle", []int{2, 5, 6, 7, 3}},
		{"control characters dropped", "mur\x07der", []int{2, 13, 3}},
		{"overlong word", strings.Repeat("a", 101), []int{2, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tok.Tokenize(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_InvalidUTF8(t *testing.T) {
	tok := newTestTokenizer(t)

	_, err := tok.Tokenize("theft \xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestTokenize_Cased(t *testing.T) {
	tok := newTestTokenizer(t, WithLowercase(false))

	got, err := tok.Tokenize("Theft of")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 6, 3}, got)
	assert.True(t, strings.HasSuffix(tok.Version(), "-cased"))
}

func TestTokenize_Deterministic(t *testing.T) {
	tok := newTestTokenizer(t)

	var wg sync.WaitGroup
	results := make([][]int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = tok.Tokenize("the unwanted theft of a vehicle")
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
}

func TestNew_MissingSpecialToken(t *testing.T) {
	_, err := New([]string{"[UNK]", "[CLS]", "theft"})
	assert.ErrorIs(t, err, ai.ErrInvalidVocabulary)
	assert.Contains(t, err.Error(), "[SEP]")
}

func TestVersion(t *testing.T) {
	a := newTestTokenizer(t)
	b := newTestTokenizer(t)
	assert.Equal(t, a.Version(), b.Version())
	assert.Len(t, a.Version(), len("wordpiece-")+12)

	other, err := New(append(append([]string{}, testVocab...), "forgery"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Version(), other.Version())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(testVocab, "\r\n")+"\r\n"), 0o644))

	tok, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, len(testVocab), tok.Size())
	assert.Equal(t, newTestTokenizer(t).Version(), tok.Version())

	got, err := tok.Tokenize("murder")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 13, 3}, got)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
