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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/nyaya"
	"github.com/poiesic/nyaya/api"
	"github.com/poiesic/nyaya/config"
	"github.com/poiesic/nyaya/reembed"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("nyaya failed", "err", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "nyaya",
		Usage:   "Semantic search over Bharatiya Nyaya Sanhita sections",
		Version: nyaya.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the database (directory for badger, file for sqlite)",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Storage driver (badger, sqlite)",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Seed, backfill and serve the HTTP query endpoint",
				Action: serveCommand,
				Flags: []cli.Flag{
					corpusFlag(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
					},
					&cli.StringFlag{
						Name:  "cors-origin",
						Usage: "Access-Control-Allow-Origin value",
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Requests per second across all clients (0 disables)",
					},
					&cli.IntFlag{
						Name:  "burst",
						Usage: "Rate limiter burst size",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load the corpus into an empty database",
				Action: seedCommand,
				Flags:  []cli.Flag{corpusFlag()},
			},
			{
				Name:   "backfill",
				Usage:  "Encode and persist vectors for sections that lack one",
				Action: backfillCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Re-encode every section with the configured encoder",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of sections to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N sections",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each vector write",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Print the sections most relevant to QUERY",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print each stage of the search",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Seed, backfill and serve the search tool over MCP stdio",
				Action: mcpCommand,
				Flags:  []cli.Flag{corpusFlag()},
			},
		},
	}
}

func corpusFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "corpus",
		Usage: "Path to the corpus spreadsheet (.xlsx or .csv)",
	}
}

// before loads the configuration, lets global flags override it and
// installs the logger.
func before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("db") {
		cfg.Storage.Path = c.String("db")
	}
	if c.IsSet("driver") {
		cfg.Storage.Driver = c.String("driver")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := setupLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func settings(c *cli.Context) *config.File {
	if cfg, ok := c.App.Metadata[configKey].(*config.File); ok {
		return cfg
	}
	return config.Default()
}

func openDatabase(c *cli.Context) (*nyaya.Database, error) {
	cfg := settings(c)
	db, err := nyaya.NewDatabase(cfg.Storage.Path,
		nyaya.WithDriver(cfg.Storage.Driver),
		nyaya.WithAIConfig(&cfg.Encoder),
		nyaya.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func corpusPath(c *cli.Context) string {
	if c.IsSet("corpus") {
		return c.String("corpus")
	}
	return settings(c).Corpus.Path
}

func serveCommand(c *cli.Context) error {
	cfg := settings(c)
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("cors-origin") {
		cfg.Server.CORSOrigin = c.String("cors-origin")
	}
	if c.IsSet("rate-limit") {
		cfg.Server.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("burst") {
		cfg.Server.Burst = c.Int("burst")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Bootstrap(c.Context, corpusPath(c)); err != nil {
		return err
	}

	server, err := db.NewServer(
		api.WithAddr(cfg.Server.Addr),
		api.WithCORSOrigin(cfg.Server.CORSOrigin),
		api.WithRequestTimeout(cfg.Server.RequestTimeout),
		api.WithRateLimit(cfg.Server.RateLimit, cfg.Server.Burst),
	)
	if err != nil {
		return err
	}
	return server.Run(c.Context)
}

func seedCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	seeded, err := db.Seed(c.Context, corpusPath(c))
	if err != nil {
		return err
	}
	if seeded == 0 {
		fmt.Fprintln(c.App.Writer, "Database already seeded")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Seeded %d sections\n", seeded)
	return nil
}

func backfillCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := db.Backfill(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Sections: %d  loaded: %d  encoded: %d  degraded: %d  failed: %d\n",
		report.Total, report.Loaded, report.Encoded, report.Degraded, report.Failed)
	if report.Degraded > 0 || report.Failed > 0 {
		return errors.New("some sections are still without a vector, run backfill again")
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	// Validate flags
	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	reportInterval := c.Int("report-interval")
	if reportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	maxRetries := c.Int("max-retries")
	if maxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      batchSize,
		ReportInterval: reportInterval,
		MaxRetries:     maxRetries,
		RetryDelay:     c.Duration("retry-delay"),
	}

	slog.Info("starting reembed operation",
		"db", settings(c).Storage.Path,
		"encoder", db.Provider().Embedder().Version(),
		"batchSize", batchSize)

	if _, err := db.NewReembedder(reembedConfig, c.App.ErrWriter).Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	slog.Info("reembed operation completed successfully")
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a search query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Backfill(c.Context); err != nil {
		return err
	}
	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	var monitor *traceMonitor
	if c.Bool("explain") {
		monitor = newTraceMonitor(c.App.Writer)
	}
	results, err := searcher.SearchWithMonitor(c.Context, query, monitor.orNil())
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d sections\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: [%s] %s (%d)[%0.3f]\n",
			i+1, hit.Section.SectionNo, hit.Section.Title, hit.Section.Id, hit.Score)
		if hit.Section.Punishment != "" {
			fmt.Fprintf(c.App.Writer, "   %s\n", hit.Section.Punishment)
		}
	}
	return nil
}

func mcpCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Bootstrap(c.Context, corpusPath(c)); err != nil {
		return err
	}
	server, err := db.NewMCPServer()
	if err != nil {
		return err
	}
	return server.Run(c.Context)
}

func setupLogger(levelStr, format string) error {
	// Normalize to lowercase
	levelStr = strings.ToLower(levelStr)

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", format)
	}
	slog.SetDefault(slog.New(handler))

	return nil
}
