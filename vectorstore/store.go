// Package vectorstore keeps every section's embedding in memory and writes
// newly computed embeddings through to storage.
//
// # Concurrency
//
// A Store is safe for concurrent use. Reads (Get, All, Len) share a read
// lock; cache writes take the write lock for a single map update. Backfill
// passes are serialized by a separate mutex, so two EnsureAll calls never
// encode the same section twice. A vector enters the cache only after it has
// been persisted, so the cache never holds a vector storage does not.
package vectorstore

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
)

// DefaultWriteTimeout bounds each write-through persist.
const DefaultWriteTimeout = 5 * time.Second

// Report counts the outcome of an EnsureAll pass.
type Report struct {
	Total    int // sections examined
	Loaded   int // persisted vectors adopted without encoding
	Encoded  int // vectors encoded, persisted and cached
	Skipped  int // already cached
	Degraded int // encoding failed; left uncached for the next pass
	Failed   int // persistence failed; left uncached for the next pass
}

// Store is the in-memory vector cache.
type Store struct {
	repo         storage.SectionRepository
	embedder     ai.Embedder
	pool         *ants.Pool
	writeTimeout time.Duration
	logger       *slog.Logger

	mu      sync.RWMutex
	vectors map[core.ID]core.Embedding

	backfill sync.Mutex
}

// Option configures a Store.
type Option func(*Store) error

// WithPoolSize sets the worker pool size for concurrent encoding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Store) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithWriteTimeout bounds each persistence write.
// Default is DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) error {
		if d > 0 {
			s.writeTimeout = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates an empty cache over repo. Call Release when done.
func NewStore(repo storage.SectionRepository, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Store{
		repo:         repo,
		embedder:     embedder,
		pool:         pool,
		writeTimeout: DefaultWriteTimeout,
		logger:       slog.Default(),
		vectors:      make(map[core.ID]core.Embedding),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	return s, nil
}

// Release releases the worker pool. The store should not be used after.
func (s *Store) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Dimension is the vector length the store caches.
func (s *Store) Dimension() int {
	return s.embedder.Dimension()
}

// Get returns the cached vector for id, if any.
func (s *Store) Get(id core.ID) (core.Embedding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vec, ok := s.vectors[id]
	return vec, ok
}

// All returns a snapshot of the cache. The map is a copy; the vectors are
// shared and must not be modified.
func (s *Store) All() map[core.ID]core.Embedding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[core.ID]core.Embedding, len(s.vectors))
	for id, vec := range s.vectors {
		out[id] = vec
	}
	return out
}

// Len returns the number of cached vectors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Put caches a vector that the caller has already persisted.
func (s *Store) Put(id core.ID, vec core.Embedding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[id] = vec
}

// Evict drops id from the cache, typically because its record is gone.
func (s *Store) Evict(id core.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vectors, id)
}

// Backfill lists every stored section and runs EnsureAll over them.
func (s *Store) Backfill(ctx context.Context) (Report, error) {
	sections, err := s.repo.ListSections(ctx)
	if err != nil {
		return Report{}, err
	}
	return s.EnsureAll(ctx, sections)
}

type outcome int

const (
	outcomeEncoded outcome = iota
	outcomeDegraded
	outcomeFailed
	outcomeCancelled
	outcomeUnavailable
)

// EnsureAll makes sure every section has a cached vector. Persisted vectors
// of the right length are adopted as-is; the rest are encoded on the worker
// pool, written through to storage and then cached. Entries whose encoding
// degrades or whose write fails stay uncached and are retried on the next
// call. A second call over the same sections encodes nothing.
func (s *Store) EnsureAll(ctx context.Context, sections []*core.Section) (Report, error) {
	s.backfill.Lock()
	defer s.backfill.Unlock()

	dim := s.embedder.Dimension()
	report := Report{Total: len(sections)}

	var pending []*core.Section
	for _, section := range sections {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if section == nil {
			report.Total--
			continue
		}
		if vec, ok := s.Get(section.Id); ok && len(vec) == dim {
			report.Skipped++
			continue
		}
		if section.HasVector(dim) {
			s.Put(section.Id, section.Vector.Clone())
			report.Loaded++
			continue
		}
		if len(section.Vector) > 0 {
			s.logger.Warn("persisted vector has wrong dimension, re-encoding",
				"id", section.Id, "have", len(section.Vector), "want", dim)
		}
		pending = append(pending, section)
	}

	if len(pending) == 0 {
		return report, nil
	}

	outcomes := make([]outcome, len(pending))
	var wg sync.WaitGroup
	for i, section := range pending {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = s.encodeAndStore(ctx, section)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return report, err
		}
	}
	wg.Wait()

	var unavailable bool
	for _, o := range outcomes {
		switch o {
		case outcomeEncoded:
			report.Encoded++
		case outcomeDegraded:
			report.Degraded++
		case outcomeFailed:
			report.Failed++
		case outcomeUnavailable:
			unavailable = true
		}
	}

	s.logger.Debug("backfill pass complete",
		"total", report.Total, "loaded", report.Loaded, "encoded", report.Encoded,
		"skipped", report.Skipped, "degraded", report.Degraded, "failed", report.Failed)

	if unavailable {
		return report, ai.ErrEmbedderUnavailable
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Store) encodeAndStore(ctx context.Context, section *core.Section) outcome {
	if ctx.Err() != nil {
		return outcomeCancelled
	}

	vec, err := s.embedder.EmbedText(ctx, section.Text())
	switch {
	case errors.Is(err, ai.ErrEmbedderUnavailable):
		return outcomeUnavailable
	case err != nil:
		s.logger.Warn("encoding degraded, section left uncached", "id", section.Id, "section", section.SectionNo, "err", err)
		return outcomeDegraded
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	if err := s.repo.SetVector(wctx, section.Id, vec); err != nil {
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		s.logger.Error("error persisting vector", "id", section.Id, "section", section.SectionNo, "err", err)
		return outcomeFailed
	}

	s.Put(section.Id, vec)
	return outcomeEncoded
}
