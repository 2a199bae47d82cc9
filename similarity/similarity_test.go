package similarity

import (
	"math"
	"testing"

	"github.com/poiesic/nyaya/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{2, 100, 3}, []float32{2, 100, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"zero query", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"zero candidate", []float32{1, 2, 3}, []float32{0, 0, 0}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosine_Properties(t *testing.T) {
	vectors := [][]float32{
		{2, 100, 3, 0},
		{2, 100, 5, 11},
		{2, 8, 3, 0},
		{2, 9, 3, 0},
	}

	for _, a := range vectors {
		self := Cosine(a, a)
		assert.InDelta(t, 1, self, 1e-9)
		for _, b := range vectors {
			ab := Cosine(a, b)
			assert.InDelta(t, ab, Cosine(b, a), 1e-12, "symmetry")
			assert.LessOrEqual(t, ab, self+1e-12, "self-maximal")
			assert.False(t, math.IsNaN(ab))
		}
	}
}

func TestNorm(t *testing.T) {
	assert.InDelta(t, 5, Norm([]float32{3, 4}), 1e-9)
	assert.Zero(t, Norm(nil))
}

func TestTopK(t *testing.T) {
	candidates := map[core.ID]core.Embedding{
		1: {2, 100, 3, 0, 0},
		2: {2, 8, 3, 0, 0},
		3: {2, 9, 3, 0, 0},
		4: {2, 10, 3, 0, 0},
		5: {2, 100, 5, 11, 3},
	}
	query := []float32{2, 100, 3, 0, 0}

	matches := TopK(query, candidates, 4)
	require.Len(t, matches, 4)
	assert.Equal(t, core.ID(1), matches[0].Id)
	assert.Equal(t, core.ID(5), matches[1].Id)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	assert.NotContains(t, Rank(query, candidates, 4), core.ID(2), "murder is the weakest match")
}

func TestTopK_FewerThanK(t *testing.T) {
	candidates := map[core.ID]core.Embedding{
		7: {1, 2},
		9: {2, 1},
	}

	assert.Len(t, TopK([]float32{1, 1}, candidates, 4), 2)
}

func TestTopK_Empty(t *testing.T) {
	matches := TopK([]float32{1, 2}, nil, 4)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	assert.Empty(t, TopK([]float32{1}, map[core.ID]core.Embedding{1: {1}}, 0))
	assert.Empty(t, TopK([]float32{1}, map[core.ID]core.Embedding{1: {1}}, -3))
}

func TestTopK_TiesByAscendingID(t *testing.T) {
	candidates := map[core.ID]core.Embedding{
		30: {1, 1},
		10: {1, 1},
		20: {1, 1},
		5:  {0, 0},
	}

	assert.Equal(t, []core.ID{10, 20, 30}, Rank([]float32{3, 3}, candidates, 3))
	// Zero vectors score 0 and sort last.
	assert.Equal(t, []core.ID{10, 20, 30, 5}, Rank([]float32{3, 3}, candidates, 10))
}
