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


package core

import (
	"fmt"
	"strings"
)

// ValidateSection validates a Section according to domain rules.
//
// Validation rules:
//   - SectionNo must not be blank
//   - Title must not be blank
//
// NOT validated:
//   - Description and Punishment (some sections carry neither)
//   - Vector (empty until the backfill pass runs)
//   - ID (assigned by storage)
func ValidateSection(section *Section) error {
	if section == nil {
		return fmt.Errorf("%w: section is nil", ErrInvalidSection)
	}

	if strings.TrimSpace(section.SectionNo) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptySectionNo)
	}

	if strings.TrimSpace(section.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptyTitle)
	}

	return nil
}

// ValidateCheckpoint validates a Checkpoint before it is persisted.
func ValidateCheckpoint(checkpoint *Checkpoint) error {
	if checkpoint == nil {
		return fmt.Errorf("%w: checkpoint is nil", ErrInvalidCheckpoint)
	}
	if checkpoint.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidCheckpoint)
	}
	if checkpoint.Dimension < 0 {
		return fmt.Errorf("%w: negative dimension %d", ErrInvalidCheckpoint, checkpoint.Dimension)
	}
	return nil
}
