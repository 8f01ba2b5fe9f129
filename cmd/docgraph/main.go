// Copyright 2026 Poiesic Systems
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/docgraph"
	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/reembed"
	"github.com/poiesic/docgraph/retrieval"
	"github.com/poiesic/docgraph/service"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docgraph",
		Usage: "Grounded question answering over iiRDS documentation packages",
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
				Name:   "serve",
				Usage:  "Run the HTTP query service",
				Action: serveCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "listen",
						Usage: "HTTP listen address",
						Value: ":8080",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of vector seed chunks per query",
						Value: 8,
					},
					&cli.IntFlag{
						Name:  "hop-limit",
						Usage: "Maximum graph expansion depth",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "max-context-chunks",
						Usage: "Maximum chunks handed to the model",
						Value: 12,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Embedding worker pool size",
						Value: 4,
					},
				),
			},
			{
				Name:      "ingest",
				Usage:     "Ingest iiRDS packages into the index",
				ArgsUsage: "PACKAGE.zip [PACKAGE.zip ...]",
				Action:    ingestCommand,
				Flags: append(commonFlags(),
					&cli.BoolFlag{
						Name:  "append",
						Usage: "Add chunks alongside existing ones instead of replacing the document",
					},
					&cli.IntFlag{
						Name:  "target-words",
						Usage: "Chunk window size in words",
						Value: 250,
					},
					&cli.IntFlag{
						Name:  "overlap-words",
						Usage: "Chunk overlap in words",
						Value: 40,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Embedding worker pool size",
						Value: 4,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Ask one question against the index",
				ArgsUsage: "QUESTION",
				Action:    queryCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Model backend (local or remote)",
						Value: "local",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Print the retrieved chunks and the prompt",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of vector seed chunks",
						Value: 8,
					},
					&cli.IntFlag{
						Name:  "hop-limit",
						Usage: "Maximum graph expansion depth",
						Value: 2,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Rewrite all chunk vectors with a new embedding model",
				Action: reembedCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
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
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB index directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "local-host",
			Usage: "Local model host URL",
		},
		&cli.StringFlag{
			Name:  "local-model",
			Usage: "Local model name",
		},
		&cli.StringFlag{
			Name:  "remote-host",
			Usage: "Remote model host URL",
		},
		&cli.StringFlag{
			Name:  "remote-model",
			Usage: "Remote model name",
		},
		&cli.StringFlag{
			Name:    "remote-api-key",
			Usage:   "Remote model API key",
			EnvVars: []string{"DOCGRAPH_REMOTE_API_KEY"},
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	var opts []ai.ConfigOption
	if c.String("embedding-host") != "" || c.String("embedding-model") != "" {
		opts = append(opts, ai.WithEmbedding(c.String("embedding-host"), c.String("embedding-model")))
	}
	if c.String("local-host") != "" || c.String("local-model") != "" {
		opts = append(opts, ai.WithLocal(c.String("local-host"), c.String("local-model")))
	}
	if c.String("remote-api-key") != "" {
		opts = append(opts, ai.WithRemote(c.String("remote-host"), c.String("remote-model"), c.String("remote-api-key")))
	}

	config := ai.NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}
	return config, nil
}

func openApp(c *cli.Context) (*docgraph.App, error) {
	config, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}
	return docgraph.NewApp(c.String("db"), docgraph.WithAIConfig(config))
}

func serveCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer app.Close()

	config := retrieval.DefaultConfig()
	config.TopK = c.Int("top-k")
	config.HopLimit = c.Int("hop-limit")
	config.MaxContextChunks = c.Int("max-context-chunks")
	config.Workers = c.Int("workers")

	pipeline, err := app.NewPipeline(config)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipeline.Release()

	srv := service.NewServer(app.NewExtractor(), pipeline, app.NewRouter())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(c.String("listen"))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one package path is required")
	}

	app, err := openApp(c)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer app.Close()

	config := retrieval.DefaultConfig()
	config.TargetWords = c.Int("target-words")
	config.OverlapWords = c.Int("overlap-words")
	config.Workers = c.Int("workers")

	pipeline, err := app.NewPipeline(config)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipeline.Release()

	extractor := app.NewExtractor()
	replace := !c.Bool("append")
	ctx := context.Background()

	failed := 0
	for _, path := range c.Args().Slice() {
		blob, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}

		doc, err := extractor.Extract(blob)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}

		result, err := pipeline.Ingest(ctx, doc, replace)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}

		fmt.Printf("%s: document %s (%d units, %d chunks, %d relations)\n",
			path, result.DocumentID, result.Units, result.Chunks, result.Relations)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d packages failed", failed, c.NArg())
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}

	mode, err := core.ParseMode(c.String("mode"))
	if err != nil {
		return fmt.Errorf("invalid mode %q: must be local or remote", c.String("mode"))
	}

	app, err := openApp(c)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer app.Close()

	config := retrieval.DefaultConfig()
	config.TopK = c.Int("top-k")
	config.HopLimit = c.Int("hop-limit")

	pipeline, err := app.NewPipeline(config)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipeline.Release()

	query := &core.Query{
		Question: strings.Join(c.Args().Slice(), " "),
		Mode:     mode,
		Debug:    c.Bool("debug"),
	}

	ctx := context.Background()
	results, err := pipeline.Retrieve(ctx, query, nil)
	if err != nil {
		return err
	}

	answer, err := app.NewRouter().Answer(ctx, query, results)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)

	if query.Debug {
		fmt.Fprintf(os.Stderr, "\nRetrieved %d chunks:\n", len(results))
		for _, r := range results {
			fmt.Fprintf(os.Stderr, "  %d [%s | %s] score=%.3f hops=%d %s\n",
				r.Chunk.Id, r.Chunk.DocumentID, r.Chunk.UnitID,
				r.Score, r.Hops, r.Provenance)
		}
		fmt.Fprintf(os.Stderr, "\nPrompt:\n%s\n", answer.Prompt)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer app.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
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

	reembedder := app.NewReembedder(config, os.Stderr)

	fmt.Fprintf(os.Stderr, "Index: %s\n", c.String("db"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("re-embedding failed: %w", err)
	}
	return nil
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
