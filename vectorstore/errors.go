package vectorstore

import "errors"

var (
	// ErrRepositoryRequired is returned when a section repository is not provided.
	ErrRepositoryRequired = errors.New("section repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
