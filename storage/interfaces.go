package storage

import (
	"context"

	"github.com/poiesic/nyaya/core"
)

// SectionRepository provides operations for managing corpus sections.
// Implementations must be thread-safe and support concurrent access.
type SectionRepository interface {
	// AddSections adds one or more sections to storage.
	// Always generates new IDs from a sequence; IDs are never reused.
	// Sets InsertedAt and UpdatedAt timestamps.
	// Returns the sections with generated IDs and timestamps populated.
	AddSections(ctx context.Context, sections ...*core.Section) ([]*core.Section, error)

	// UpdateSections updates existing sections.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any section doesn't exist.
	UpdateSections(ctx context.Context, sections ...*core.Section) ([]*core.Section, error)

	// SetVector persists the embedding of a single section.
	// Returns ErrNotFound if the section doesn't exist.
	SetVector(ctx context.Context, id core.ID, vector core.Embedding) error

	// DeleteSections removes sections by their IDs.
	// Returns ErrNotFound if any section doesn't exist.
	DeleteSections(ctx context.Context, ids ...core.ID) error

	// GetSection retrieves a single section by ID.
	// Returns ErrNotFound if the section doesn't exist.
	GetSection(ctx context.Context, id core.ID) (*core.Section, error)

	// GetSections retrieves multiple sections by their IDs.
	// Returns only the sections that exist (no error for missing sections).
	GetSections(ctx context.Context, ids ...core.ID) ([]*core.Section, error)

	// ListSections returns every section ordered by ascending ID.
	ListSections(ctx context.Context) ([]*core.Section, error)

	// CountSections returns the number of stored sections.
	CountSections(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// CheckpointRepository persists named checkpoints.
type CheckpointRepository interface {
	// SaveCheckpoint stores the checkpoint, replacing any previous one with the same name.
	// Sets UpdatedAt automatically.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint with the given name.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)
}
