package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/similarity"
	"github.com/poiesic/nyaya/storage"
	"github.com/poiesic/nyaya/vectorstore"
)

// DefaultMaxHits is the number of sections a query returns at most.
const DefaultMaxHits = 4

// Searcher ranks cached section vectors against a query.
type Searcher struct {
	repository storage.SectionRepository
	store      *vectorstore.Store
	embedder   ai.Embedder
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	repository storage.SectionRepository,
	store *vectorstore.Store,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository: repository,
		store:      store,
		embedder:   provider.Embedder(),
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to DefaultMaxHits sections most similar to query.
// An empty corpus yields an empty, non-nil slice.
func (s *Searcher) Search(ctx context.Context, query string) ([]*core.Section, error) {
	results, err := s.SearchWithMonitor(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	sections := make([]*core.Section, len(results))
	for i, r := range results {
		sections[i] = r.Section
	}
	return sections, nil
}

// SearchScored is Search with the cosine score of each section.
func (s *Searcher) SearchScored(ctx context.Context, query string) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor searches with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Encode the query. A degraded vector still ranks, just poorly.
	vector, err := s.embedder.EmbedText(ctx, query)
	monitor.AfterEncode(vector, err)
	if err != nil {
		if errors.Is(err, ai.ErrEmbedderUnavailable) || vector == nil {
			s.logger.Error("error generating embedding for query", "err", err)
			return nil, err
		}
		s.logger.Warn("query encoding degraded", "err", err)
	}

	// 2. Rank the cache snapshot
	matches := similarity.TopK(vector, s.store.All(), DefaultMaxHits)
	monitor.AfterRank(matches)

	// 3. Fetch the winning sections
	results := make([]*core.SearchResult, 0, len(matches))
	sections := make([]*core.Section, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		section, err := s.repository.GetSection(ctx, match.Id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.store.Evict(match.Id)
				s.logger.Warn("ranked section no longer exists, evicted", "id", match.Id)
			} else {
				s.logger.Error("error retrieving section", "id", match.Id, "err", err)
			}
			monitor.Dropped(match.Id, err)
			continue
		}

		sections = append(sections, section)
		results = append(results, &core.SearchResult{
			Section: section,
			Score:   match.Score,
		})
	}
	monitor.AfterLookup(sections)
	monitor.Finish(results)

	return results, nil
}
