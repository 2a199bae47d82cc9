package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrIncomplete is returned when some sections were left without a new vector.
	ErrIncomplete = errors.New("reembedding incomplete")
)
