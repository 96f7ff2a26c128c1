// Copyright 2025 MoltSpace
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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/moltspace/moltspace/ai"
	"github.com/moltspace/moltspace/ai/openai"
	"github.com/moltspace/moltspace/backfill"
	"github.com/moltspace/moltspace/ingestion"
	"github.com/moltspace/moltspace/moltbook"
	"github.com/moltspace/moltspace/storage/sqlite"
)

func main() {
	app := &cli.App{
		Name:  "moltspace",
		Usage: "Ingest and embed the Moltbook agent social network",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Run one ingestion pass against the Moltbook API",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the SQLite database file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "base-url",
						Usage: "Moltbook API base URL",
						Value: moltbook.DefaultBaseURL,
					},
					&cli.IntFlag{
						Name:  "max-posts",
						Usage: "Maximum number of posts to fetch (0 for default, negative for unbounded)",
						Value: ingestion.DefaultMaxPosts,
					},
					&cli.BoolFlag{
						Name:  "include-comments",
						Usage: "Also ingest comment trees for the first fetched posts",
					},
					&cli.DurationFlag{
						Name:  "rate-limit",
						Usage: "Minimum interval between upstream API requests",
						Value: moltbook.DefaultRateLimitInterval,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "OpenAI-compatible embedding service host URL",
						Value: "https://api.openai.com/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "text-embedding-3-small",
					},
					&cli.StringFlag{
						Name:    "embedding-api-key",
						Usage:   "Embedding provider credential (embeddings are skipped when unset)",
						EnvVars: []string{"OPENAI_API_KEY"},
					},
				},
			},
			{
				Name:   "backfill-embeddings",
				Usage:  "Generate embeddings for stored posts that lack one",
				Action: backfillCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the SQLite database file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "OpenAI-compatible embedding service host URL",
						Value: "https://api.openai.com/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "embedding-api-key",
						Usage:   "Embedding provider credential",
						EnvVars: []string{"OPENAI_API_KEY"},
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Re-embed every post, not only those missing an embedding",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of posts to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of batches embedded concurrently (0 for CPU-based default)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N posts",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
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
				Name:   "stats",
				Usage:  "Print stored row counts as JSON",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the SQLite database file",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	client := moltbook.NewClient(c.String("base-url"),
		moltbook.WithRateLimitInterval(c.Duration("rate-limit")))

	fetcher, err := ingestion.NewFetcher(client)
	if err != nil {
		return err
	}
	processor, err := ingestion.NewProcessor(store, store, store, store)
	if err != nil {
		return err
	}

	var jobOpts []ingestion.JobOption
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("embedding-api-key")),
	)
	if aiConfig.Enabled() {
		if err := aiConfig.Validate(); err != nil {
			return fmt.Errorf("invalid embedding configuration: %w", err)
		}
		embedder, err := openai.NewEmbedder(aiConfig)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		jobOpts = append(jobOpts, ingestion.WithEmbedder(embedder))
	}

	job, err := ingestion.NewJob(fetcher, processor, store, jobOpts...)
	if err != nil {
		return err
	}

	report := job.Run(ctx, ingestion.Options{
		MaxPosts:        c.Int("max-posts"),
		IncludeComments: c.Bool("include-comments"),
	})

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}
	if !report.Success {
		return fmt.Errorf("ingestion failed: %s", report.Error)
	}
	return nil
}

func backfillCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("embedding-api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	config := backfill.DefaultConfig()
	config.BatchSize = c.Int("batch-size")
	config.ReportInterval = c.Int("report-interval")
	config.MaxRetries = c.Int("max-retries")
	config.RetryDelay = c.Duration("retry-delay")
	config.OnlyMissing = !c.Bool("all")
	if workers := c.Int("workers"); workers > 0 {
		config.Workers = workers
	}

	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	backfiller, err := backfill.NewBackfiller(store, embedder, config, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.Model)
	fmt.Fprintln(os.Stderr)

	if err := backfiller.Run(ctx); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	return nil
}

// storeCounts is the JSON shape printed by the stats command.
type storeCounts struct {
	Agents            int `json:"agents"`
	Submolts          int `json:"submolts"`
	Posts             int `json:"posts"`
	PostsMissingEmbed int `json:"postsMissingEmbedding"`
	Comments          int `json:"comments"`
	Topics            int `json:"topics"`
	Signals           int `json:"signals"`
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := sqlite.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	var counts storeCounts
	if counts.Agents, err = store.CountAgents(ctx); err != nil {
		return err
	}
	if counts.Submolts, err = store.CountSubmolts(ctx); err != nil {
		return err
	}
	if counts.Posts, err = store.CountPosts(ctx, false); err != nil {
		return err
	}
	if counts.PostsMissingEmbed, err = store.CountPosts(ctx, true); err != nil {
		return err
	}
	if counts.Comments, err = store.CountComments(ctx); err != nil {
		return err
	}
	if counts.Topics, err = store.CountTopics(ctx); err != nil {
		return err
	}
	if counts.Signals, err = store.CountSignals(ctx); err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(counts)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
