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

// Package nyaya wires storage, the lexical encoder, the vector cache and
// retrieval into a single handle.
package nyaya

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/nyaya/ai"
	"github.com/poiesic/nyaya/ai/lexical"
	"github.com/poiesic/nyaya/api"
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/corpus"
	"github.com/poiesic/nyaya/mcpserver"
	"github.com/poiesic/nyaya/reembed"
	"github.com/poiesic/nyaya/search"
	"github.com/poiesic/nyaya/storage"
	"github.com/poiesic/nyaya/storage/badger"
	"github.com/poiesic/nyaya/storage/sqlite"
	"github.com/poiesic/nyaya/vectorstore"
)

// Version is announced by the MCP server and printed by the CLI.
const Version = "0.3.0"

// Storage drivers accepted by WithDriver.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

type Database struct {
	sections    storage.SectionRepository
	checkpoints storage.CheckpointRepository
	closeStore  func() error
	provider    ai.Provider
	store       *vectorstore.Store
	logger      *slog.Logger
}

var _ api.Stats = (*Database)(nil)

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	driver   string
	inMemory bool
	provider ai.Provider
	logger   *slog.Logger
	poolSize int
}

// WithAIConfig sets the encoder configuration used to load the tokenizer.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithDriver selects the storage driver. Default is DriverBadger.
func WithDriver(driver string) DatabaseOption {
	return func(o *databaseOptions) {
		o.driver = driver
	}
}

// WithInMemory keeps all data in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithProvider supplies an already constructed encoder provider instead of
// loading one from the AI config.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger for the database and its components.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// WithPoolSize sets the number of backfill workers.
func WithPoolSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.poolSize = size
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
		driver:   DriverBadger,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	db := &Database{logger: options.logger}
	if err := db.openStorage(filePath, options); err != nil {
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		var err error
		provider, err = lexical.NewProvider(options.aiConfig)
		if err != nil {
			db.closeStore()
			return nil, err
		}
	}
	db.provider = provider

	storeOpts := []vectorstore.Option{vectorstore.WithLogger(options.logger)}
	if options.poolSize > 0 {
		storeOpts = append(storeOpts, vectorstore.WithPoolSize(options.poolSize))
	}
	store, err := vectorstore.NewStore(db.sections, provider.Embedder(), storeOpts...)
	if err != nil {
		provider.Close()
		db.closeStore()
		return nil, err
	}
	db.store = store

	return db, nil
}

func (db *Database) openStorage(filePath string, options *databaseOptions) error {
	switch options.driver {
	case DriverBadger, "":
		backend, err := badger.OpenBackendWithLogger(filePath, options.inMemory, options.logger)
		if err != nil {
			return err
		}
		sections, err := badger.NewSectionRepository(backend)
		if err != nil {
			backend.Close()
			return err
		}
		db.sections = sections
		db.checkpoints = badger.NewCheckpointRepository(backend)
		db.closeStore = func() error {
			if err := sections.Close(); err != nil {
				db.logger.Error("error closing section repository", "err", err)
				return err
			}
			return backend.Close()
		}
	case DriverSQLite:
		var (
			store *sqlite.Store
			err   error
		)
		if options.inMemory {
			store, err = sqlite.OpenMemory()
		} else {
			store, err = sqlite.Open(filePath)
		}
		if err != nil {
			return err
		}
		db.sections = store
		db.checkpoints = store
		db.closeStore = store.Close
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownDriver, options.driver)
	}
	return nil
}

func (db *Database) Close() error {
	// Stop backfill workers first
	db.store.Release()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.closeStore(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// BootstrapReport describes what Bootstrap did.
type BootstrapReport struct {
	Seeded   int
	Backfill vectorstore.Report

	// Stale is set when the stored vectors were produced by a different
	// encoder than the running one.
	Stale bool
}

// Bootstrap seeds the corpus if storage is empty, caches every vector
// (encoding and persisting the missing ones) and checks the encoder
// checkpoint. An empty corpusPath skips seeding.
func (db *Database) Bootstrap(ctx context.Context, corpusPath string) (*BootstrapReport, error) {
	report := &BootstrapReport{}

	if corpusPath != "" {
		seeded, err := db.Seed(ctx, corpusPath)
		if err != nil {
			return nil, fmt.Errorf("seed corpus: %w", err)
		}
		report.Seeded = seeded
	}

	backfill, err := db.store.Backfill(ctx)
	report.Backfill = backfill
	if err != nil {
		return report, fmt.Errorf("backfill vectors: %w", err)
	}
	db.logger.Info("vector cache ready",
		"total", backfill.Total,
		"loaded", backfill.Loaded,
		"encoded", backfill.Encoded,
		"degraded", backfill.Degraded,
		"failed", backfill.Failed)

	stale, err := db.checkCheckpoint(ctx, backfill)
	if err != nil {
		return report, err
	}
	report.Stale = stale
	return report, nil
}

// checkCheckpoint compares the stored encoder stamp with the running encoder.
// The stamp advances only when every cached vector is known to come from the
// running encoder.
func (db *Database) checkCheckpoint(ctx context.Context, backfill vectorstore.Report) (bool, error) {
	embedder := db.provider.Embedder()
	checkpoint, err := db.checkpoints.LoadCheckpoint(ctx, core.VectorCheckpoint)
	if err != nil {
		return false, fmt.Errorf("load checkpoint: %w", err)
	}

	mismatch := checkpoint != nil &&
		(checkpoint.EncoderVersion != embedder.Version() || checkpoint.Dimension != embedder.Dimension())
	if mismatch && backfill.Loaded > 0 {
		db.logger.Warn("stored vectors were produced by a different encoder, run `nyaya reembed`",
			"stored", checkpoint.EncoderVersion,
			"running", embedder.Version(),
			"vectors", backfill.Loaded)
		return true, nil
	}

	if backfill.Degraded > 0 || backfill.Failed > 0 || backfill.Total == 0 {
		return false, nil
	}
	err = db.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		Name:           core.VectorCheckpoint,
		EncoderVersion: embedder.Version(),
		Dimension:      embedder.Dimension(),
		Sections:       backfill.Total,
	})
	if err != nil {
		return false, fmt.Errorf("save checkpoint: %w", err)
	}
	return false, nil
}

// Seed loads the corpus at path if storage holds no sections.
func (db *Database) Seed(ctx context.Context, path string) (int, error) {
	seeder, err := corpus.NewSeeder(db.sections, corpus.WithLogger(db.logger))
	if err != nil {
		return 0, err
	}
	return seeder.SeedIfEmpty(ctx, path)
}

// Backfill caches every stored section's vector, encoding missing ones.
func (db *Database) Backfill(ctx context.Context) (vectorstore.Report, error) {
	return db.store.Backfill(ctx)
}

// CountSections returns the number of stored sections.
func (db *Database) CountSections(ctx context.Context) (int, error) {
	return db.sections.CountSections(ctx)
}

// Cached returns the number of vectors in the cache.
func (db *Database) Cached() int {
	return db.store.Len()
}

func (db *Database) SectionRepository() storage.SectionRepository {
	return db.sections
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpoints
}

func (db *Database) Store() *vectorstore.Store {
	return db.store
}

func (db *Database) Provider() ai.Provider {
	return db.provider
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.sections, db.store, db.provider, append([]search.Option{search.WithLogger(db.logger)}, opts...)...)
}

// NewReembedder returns a reembedder that refreshes the cache and the
// checkpoint as it goes.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.sections, db.provider.Embedder(), config, progress,
		reembed.WithCache(db.store),
		reembed.WithCheckpoints(db.checkpoints))
}

func (db *Database) NewServer(opts ...api.Option) (*api.Server, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return nil, err
	}
	return api.NewServer(searcher, db, append([]api.Option{api.WithLogger(db.logger)}, opts...)...)
}

func (db *Database) NewMCPServer() (*mcpserver.Server, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return nil, err
	}
	return mcpserver.New(searcher, Version, mcpserver.WithLogger(db.logger))
}
