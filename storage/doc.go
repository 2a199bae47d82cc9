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


// Package storage provides the storage abstraction layer for nyaya.
//
// This package defines repository interfaces that decouple the durable section
// store from the search core. Two backends implement them: storage/badger
// (the default, an embedded BadgerDB) and storage/sqlite (a single SQLite file
// through the pure-Go modernc.org/sqlite driver).
//
// # Architecture
//
//   - SectionRepository: CRUD for corpus sections plus SetVector, the
//     write-through target of the vector cache
//   - CheckpointRepository: named checkpoints recording which encoder produced
//     the persisted vectors
//
// Section records and checkpoints are stored in a compact versioned binary
// format (see MarshalSection). Embeddings are little-endian float32 arrays
// and round-trip losslessly.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	sections, checkpoints, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	defer sections.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
