// Package similarity ranks cached embeddings against a query vector.
//
// Ranking is a linear scan over every candidate, O(n·D) per query. That is
// fine for a corpus of a few hundred statutory sections that never changes at
// runtime; a larger or growing corpus would need an ANN index instead.
package similarity

import (
	"cmp"
	"math"
	"slices"

	"github.com/poiesic/nyaya/core"
)

// Match is a ranked candidate.
type Match struct {
	Id    core.ID
	Score float64
}

// Cosine returns the cosine similarity of a and b, accumulated in float64.
// It returns 0 when either vector has zero magnitude or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Norm returns the Euclidean magnitude of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// TopK scores every candidate against query and returns the best
// min(k, len(candidates)) matches by descending score, ties broken by
// ascending id. A non-positive k yields an empty result.
func TopK(query []float32, candidates map[core.ID]core.Embedding, k int) []Match {
	if k <= 0 || len(candidates) == 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(candidates))
	for id, vec := range candidates {
		matches = append(matches, Match{Id: id, Score: Cosine(query, vec)})
	}

	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Rank is TopK without scores.
func Rank(query []float32, candidates map[core.ID]core.Embedding, k int) []core.ID {
	matches := TopK(query, candidates, k)
	ids := make([]core.ID, len(matches))
	for i, m := range matches {
		ids[i] = m.Id
	}
	return ids
}
