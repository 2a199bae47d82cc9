// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of sections to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of sections)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each vector write
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary counts the outcome of a Run.
type Summary struct {
	Total    int
	Encoded  int
	Degraded int
	Failed   int
	Elapsed  time.Duration
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithCache refreshes cache with every persisted vector.
func WithCache(cache Cache) Option {
	return func(r *Reembedder) {
		r.cache = cache
	}
}

// WithCheckpoints records the encoder version after a complete run.
func WithCheckpoints(checkpoints storage.CheckpointRepository) Option {
	return func(r *Reembedder) {
		r.checkpoints = checkpoints
	}
}

// Reembedder orchestrates the reembedding of all sections in a database.
type Reembedder struct {
	repo        storage.SectionRepository
	checkpoints storage.CheckpointRepository
	cache       Cache
	embedder    ai.Embedder
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *SectionIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.SectionRepository, embedder ai.Embedder, config *Config, progress io.Writer, opts ...Option) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   config,
		progress: progress,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.processor = NewBatchProcessor(repo, embedder, r.cache, config.MaxRetries, config.RetryDelay)
	r.iterator = NewSectionIterator(repo, config.BatchSize)
	return r
}

// Run executes the reembedding operation.
// Every section in the database is re-encoded with the configured embedder.
// Progress is reported to the configured writer. If any section is left
// without a fresh vector the returned error wraps ErrIncomplete and the
// checkpoint is not updated.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	// First, count total sections
	total, err := r.repo.CountSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sections: %w", err)
	}

	summary := &Summary{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No sections found in database (0 sections)\n")
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d sections with %s (batch size: %d)\n",
		total, r.embedder.Version(), r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	// Process all sections in batches
	err = r.iterator.ForEach(ctx, func(sections []*core.Section) error {
		result, err := r.processor.Process(ctx, sections)
		summary.Encoded += result.Encoded
		summary.Degraded += result.Degraded
		summary.Failed += result.Failed
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		tracker.Increment(len(sections))
		return nil
	})
	summary.Elapsed = tracker.Elapsed()
	if err != nil {
		return summary, err
	}

	// Finish progress tracking
	tracker.Finish()

	fmt.Fprintf(r.progress, "Reembedding complete. Encoded %d of %d sections in %v (%d degraded, %d failed)\n",
		summary.Encoded, total, summary.Elapsed.Round(time.Millisecond), summary.Degraded, summary.Failed)

	if summary.Degraded > 0 || summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d degraded, %d failed", ErrIncomplete, summary.Degraded, summary.Failed)
	}

	if r.checkpoints != nil {
		err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
			Name:           core.VectorCheckpoint,
			EncoderVersion: r.embedder.Version(),
			Dimension:      r.embedder.Dimension(),
			Sections:       summary.Encoded,
		})
		if err != nil {
			return summary, fmt.Errorf("failed to save checkpoint: %w", err)
		}
	}

	return summary, nil
}
