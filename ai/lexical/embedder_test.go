package lexical

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedText_PadsTokenIDs(t *testing.T) {
	e := NewEmbedder(mock.NewMockTokenizer(nil), 8)

	vec, err := e.EmbedText(context.Background(), "Theft of vehicle")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 100, 5, 11, 3, 0, 0, 0}, vec)
}

func TestEmbedText_Truncates(t *testing.T) {
	e := NewEmbedder(mock.NewMockTokenizer(nil), 3)

	vec, err := e.EmbedText(context.Background(), "theft of a vehicle")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 100, 5}, vec)
}

func TestEmbedText_AlwaysDimension(t *testing.T) {
	e := NewEmbedder(mock.NewMockTokenizer(nil), 128)
	long := strings.Repeat("murder ", 500)

	for _, text := range []string{"", "theft", long, "   ", "न्याय"} {
		vec, err := e.EmbedText(context.Background(), text)
		require.NoError(t, err)
		assert.Len(t, vec, 128)
	}
}

func TestEmbedText_Deterministic(t *testing.T) {
	e := NewEmbedder(mock.NewMockTokenizer(nil), 128)

	a, err := e.EmbedText(context.Background(), "Assault of a person")
	require.NoError(t, err)
	b, err := e.EmbedText(context.Background(), "Assault of a person")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbedText_BlankSkipsTokenizer(t *testing.T) {
	tok := mock.NewMockTokenizer(nil)
	e := NewEmbedder(tok, 16)

	vec, err := e.EmbedText(context.Background(), " \t\n")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), vec)
	assert.Zero(t, tok.CallCount())
}

func TestEmbedText_TokenizerFailureDegrades(t *testing.T) {
	tok := mock.NewMockTokenizer(nil)
	tok.TokenizeFunc = func(string) ([]int, error) {
		return nil, errors.New("bad input")
	}
	e := NewEmbedder(tok, 16)

	vec, err := e.EmbedText(context.Background(), "theft")
	assert.ErrorIs(t, err, ai.ErrEncodingFailed)
	assert.Contains(t, err.Error(), "bad input")
	assert.Equal(t, make([]float32, 16), vec)
	assert.Equal(t, 1, tok.CallCount(), "no retry")
}

func TestEmbedText_Unavailable(t *testing.T) {
	e := NewEmbedder(nil, 128)

	vec, err := e.EmbedText(context.Background(), "theft")
	assert.ErrorIs(t, err, ai.ErrEmbedderUnavailable)
	assert.Nil(t, vec)

	_, err = e.EmbedTexts(context.Background(), []string{"theft"})
	assert.ErrorIs(t, err, ai.ErrEmbedderUnavailable)
	assert.Equal(t, "none/d128", e.Version())
}

func TestEmbedTexts_ReportsDegraded(t *testing.T) {
	tok := mock.NewMockTokenizer(nil)
	tok.TokenizeFunc = func(text string) ([]int, error) {
		if text == "bad" {
			return nil, errors.New("boom")
		}
		return []int{2, 8, 3}, nil
	}
	e := NewEmbedder(tok, 4)

	vecs, err := e.EmbedTexts(context.Background(), []string{"murder", "bad", "murder", "bad"})
	require.Len(t, vecs, 4)

	var degraded *ai.DegradedError
	require.ErrorAs(t, err, &degraded)
	assert.Equal(t, []int{1, 3}, degraded.Indices)
	assert.ErrorIs(t, err, ai.ErrEncodingFailed)

	assert.Equal(t, []float32{2, 8, 3, 0}, vecs[0])
	assert.Equal(t, []float32{0, 0, 0, 0}, vecs[1])
}

func TestEmbedTexts_Cancelled(t *testing.T) {
	e := NewEmbedder(mock.NewMockTokenizer(nil), 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EmbedTexts(ctx, []string{"theft"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVersion(t *testing.T) {
	e := NewEmbedder(mock.NewMockTokenizer(nil), 128)
	assert.Equal(t, "mock/d128", e.Version())
	assert.Equal(t, 128, e.Dimension())
}

func TestNewProvider_WordPiece(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	vocab := "[PAD]\n[UNK]\n[CLS]\n[SEP]\ntheft\nof\nvehicle\n"
	require.NoError(t, os.WriteFile(path, []byte(vocab), 0o644))

	p, err := NewProvider(ai.NewConfig(ai.WithVocabPath(path), ai.WithMaxLength(6)))
	require.NoError(t, err)
	defer p.Close()

	vec, err := p.Embedder().EmbedText(context.Background(), "Theft of Vehicle")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 5, 6, 3, 0}, vec)
	assert.True(t, strings.HasPrefix(p.Embedder().Version(), "wordpiece-"))
	assert.True(t, strings.HasSuffix(p.Embedder().Version(), "/d6"))
	assert.Equal(t, p.Tokenizer().Version()+"/d6", p.Embedder().Version())
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithTokenizer("sentencepiece")))
	assert.ErrorIs(t, err, ai.ErrUnknownTokenizer)

	_, err = NewProvider(ai.NewConfig(ai.WithVocabPath(filepath.Join(t.TempDir(), "missing.txt"))))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewProvider(ai.NewConfig(
		ai.WithTokenizer(ai.TokenizerBPE),
		ai.WithVocabPath(filepath.Join(t.TempDir(), "missing.tiktoken")),
	))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
