package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEncodingFailed marks a degraded encoding. The accompanying vector
	// is all zeros.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrEmbedderUnavailable is returned when no tokenizer was loaded.
	ErrEmbedderUnavailable = errors.New("embedder unavailable")

	// ErrUnknownTokenizer is returned for an unsupported Config.Tokenizer.
	ErrUnknownTokenizer = errors.New("unknown tokenizer")

	// ErrInvalidVocabulary is returned when a vocabulary file cannot be used.
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
)

// DegradedError reports the batch positions that were replaced by zero
// vectors. It unwraps to the first underlying cause.
type DegradedError struct {
	Indices []int
	Err     error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("%d of batch degraded: %v", len(e.Indices), e.Err)
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}
