package core

import (
	"time"
)

// ID is a unique identifier for domain entities.
// It is assigned by storage sequences and never reused.
type ID uint64

// Embedding is a fixed-length numeric vector produced by an encoder.
// Every embedding held by a running process has the same length.
type Embedding []float32

// Clone returns a copy of the embedding that shares no memory with e.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// IsZero reports whether every component of the embedding is zero.
func (e Embedding) IsZero() bool {
	for _, v := range e {
		if v != 0 {
			return false
		}
	}
	return true
}

// Section represents a single legal section of the corpus.
// It may be enriched with an embedding by the backfill pass.
type Section struct {
	Id          ID
	SectionNo   string
	Title       string
	Description string
	Punishment  string
	Vector      Embedding // Embedding of Text() (nil until backfilled)
	InsertedAt  time.Time // When the section was inserted into the database
	UpdatedAt   time.Time // When the section was last updated
}

// Text returns the text that is encoded into the section's embedding.
func (s *Section) Text() string {
	return s.Title + " " + s.Description
}

// HasVector reports whether the section carries an embedding of length dim.
func (s *Section) HasVector(dim int) bool {
	return len(s.Vector) > 0 && len(s.Vector) == dim
}

// SearchResult represents a search result with the full section and relevance score.
type SearchResult struct {
	Section *Section
	Score   float64
}

// Checkpoint records which encoder produced the persisted vectors.
type Checkpoint struct {
	Name           string
	EncoderVersion string
	Dimension      int
	Sections       int
	UpdatedAt      time.Time
}

// VectorCheckpoint is the checkpoint name used for section vectors.
const VectorCheckpoint = "vectors"
