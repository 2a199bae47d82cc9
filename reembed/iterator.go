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

	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
)

const (
	// DefaultBatchSize is the default number of sections to process in each batch
	DefaultBatchSize = 100
)

// SectionIterator iterates over all sections in batches.
type SectionIterator struct {
	repo      storage.SectionRepository
	batchSize int
}

// NewSectionIterator creates a new section iterator.
// batchSize: number of sections per batch (values <= 0 use DefaultBatchSize)
func NewSectionIterator(repo storage.SectionRepository, batchSize int) *SectionIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &SectionIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all sections in ascending id order, calling fn for
// each batch. Iteration stops on first error from fn or when all sections
// are processed. Context cancellation is checked between batches.
func (it *SectionIterator) ForEach(ctx context.Context, fn func([]*core.Section) error) error {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return err
	}

	sections, err := it.repo.ListSections(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < len(sections); i += it.batchSize {
		end := min(i+it.batchSize, len(sections))

		if err := fn(sections[i:end]); err != nil {
			return err
		}

		// Check context after each batch
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
