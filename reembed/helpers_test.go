package reembed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/ai/mock"
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
	"github.com/poiesic/nyaya/storage/badger"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.SectionRepository, storage.CheckpointRepository) {
	t.Helper()
	sections, checkpoints, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		sections.Close()
		backend.Close()
	})
	return sections, checkpoints
}

func addSections(t *testing.T, repo storage.SectionRepository, titles ...string) []*core.Section {
	t.Helper()
	sections := make([]*core.Section, len(titles))
	for i, title := range titles {
		sections[i] = &core.Section{SectionNo: title[:1], Title: title}
	}
	added, err := repo.AddSections(context.Background(), sections...)
	require.NoError(t, err)
	return added
}

// countingEmbedder encodes text length into a 4 dimensional vector.
func countingEmbedder() *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.Dim = 4
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text)), 1, 0, 0}, nil
	}
	return m
}

// flakyRepo fails SetVector a configurable number of times per id.
type flakyRepo struct {
	storage.SectionRepository
	failures int
	missing  core.ID

	mu    sync.Mutex
	seen  map[core.ID]int
	calls atomic.Int64
}

var errWriteFailed = errors.New("write failed")

func (f *flakyRepo) SetVector(ctx context.Context, id core.ID, vec core.Embedding) error {
	f.calls.Add(1)
	if id == f.missing {
		return storage.ErrNotFound
	}
	f.mu.Lock()
	if f.seen == nil {
		f.seen = map[core.ID]int{}
	}
	f.seen[id]++
	n := f.seen[id]
	f.mu.Unlock()
	if n <= f.failures {
		return errWriteFailed
	}
	return f.SectionRepository.SetVector(ctx, id, vec)
}

// recordingCache collects vectors put by the processor.
type recordingCache struct {
	mu      sync.Mutex
	vectors map[core.ID]core.Embedding
}

func (c *recordingCache) Put(id core.ID, vec core.Embedding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vectors == nil {
		c.vectors = map[core.ID]core.Embedding{}
	}
	c.vectors[id] = vec
}

var _ ai.Embedder = (*mock.MockEmbedder)(nil)
