package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
)

// Cache receives vectors after they have been persisted.
// *vectorstore.Store satisfies it.
type Cache interface {
	Put(id core.ID, vec core.Embedding)
}

// BatchResult counts the outcome of one batch.
type BatchResult struct {
	Encoded  int
	Degraded int
	Failed   int
}

// BatchProcessor handles embedding generation for batches of sections.
type BatchProcessor struct {
	repo           storage.SectionRepository
	embedder       ai.Embedder
	cache          Cache
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each vector write
// retryBaseDelay: base delay for exponential backoff
// cache may be nil.
func NewBatchProcessor(repo storage.SectionRepository, embedder ai.Embedder, cache Cache, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		cache:          cache,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default(),
	}
}

// Process encodes a batch of sections and writes every vector through to
// storage. Degraded encodings are not written. A write that still fails
// after retries is counted and the batch continues.
func (bp *BatchProcessor) Process(ctx context.Context, sections []*core.Section) (BatchResult, error) {
	var result BatchResult
	if len(sections) == 0 {
		return result, nil
	}

	texts := make([]string, len(sections))
	for i, section := range sections {
		texts[i] = section.Text()
	}

	embeddings, err := bp.embedder.EmbedTexts(ctx, texts)
	degraded := map[int]bool{}
	var degradedErr *ai.DegradedError
	switch {
	case errors.As(err, &degradedErr):
		for _, i := range degradedErr.Indices {
			degraded[i] = true
		}
	case err != nil:
		return result, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(embeddings) != len(sections) {
		return result, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(sections), len(embeddings))
	}

	for i, section := range sections {
		if degraded[i] {
			bp.logger.Warn("encoding degraded, vector not replaced", "id", section.Id, "section", section.SectionNo)
			result.Degraded++
			continue
		}

		vec := core.Embedding(embeddings[i])
		err := RetryWithBackoff(ctx, func() error {
			return bp.repo.SetVector(ctx, section.Id, vec)
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			bp.logger.Error("error persisting vector", "id", section.Id, "attempts", bp.maxRetries, "err", err)
			result.Failed++
			continue
		}

		section.Vector = vec
		if bp.cache != nil {
			bp.cache.Put(section.Id, vec)
		}
		result.Encoded++
	}

	return result, nil
}
