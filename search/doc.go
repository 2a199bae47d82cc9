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


// Package search answers free-text queries with the most similar legal
// sections.
//
// The Searcher runs a fixed pipeline:
//   - Encode the query with the configured ai.Embedder
//   - Rank every cached section vector by cosine similarity
//   - Fetch the top DefaultMaxHits sections from storage
//
// Sections whose records cannot be fetched are dropped from the result
// rather than failing the query. A record that no longer exists is also
// evicted from the vector cache.
package search
