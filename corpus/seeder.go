package corpus

import (
	"context"
	"log/slog"

	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
)

// DefaultBatchSize is the number of sections added per storage call.
const DefaultBatchSize = 100

// Seeder imports a corpus into an empty repository.
type Seeder struct {
	repository storage.SectionRepository
	batchSize  int
	logger     *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithBatchSize sets how many sections are added per call.
func WithBatchSize(size int) Option {
	return func(s *Seeder) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Seeder) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSeeder creates a seeder over repository.
func NewSeeder(repository storage.SectionRepository, opts ...Option) (*Seeder, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	s := &Seeder{
		repository: repository,
		batchSize:  DefaultBatchSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SeedIfEmpty loads path into the repository only if it holds no sections.
// It returns the number of sections inserted.
func (s *Seeder) SeedIfEmpty(ctx context.Context, path string) (int, error) {
	count, err := s.repository.CountSections(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Debug("corpus already seeded", "sections", count)
		return 0, nil
	}

	sections, err := Load(path)
	if err != nil {
		return 0, err
	}
	return s.Seed(ctx, sections)
}

// Seed adds sections in batches and returns how many were inserted.
// Batches already added stay added if a later batch fails.
func (s *Seeder) Seed(ctx context.Context, sections []*core.Section) (int, error) {
	inserted := 0
	for start := 0; start < len(sections); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		end := min(start+s.batchSize, len(sections))
		added, err := s.repository.AddSections(ctx, sections[start:end]...)
		if err != nil {
			s.logger.Error("error seeding batch", "start", start, "end", end, "err", err)
			return inserted, err
		}
		inserted += len(added)
	}
	s.logger.Info("corpus seeded", "sections", inserted)
	return inserted, nil
}
