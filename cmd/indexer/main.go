package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/madewith/chatbot/backend/internal/app"
	"github.com/madewith/chatbot/backend/internal/storage"
	"github.com/madewith/chatbot/backend/internal/timing"
	"github.com/madewith/chatbot/backend/internal/util"
	"github.com/madewith/chatbot/backend/pkg/graph"
	"github.com/madewith/chatbot/backend/pkg/logger"
	"github.com/madewith/chatbot/backend/pkg/logger/console"

	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:      "indexer",
		Usage:     "Load scraped site content into the vector index and, optionally, the knowledge graph",
		ArgsUsage: "<file|dir|s3://prefix|https://url> ...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "graph",
				Usage: "Also extract graph facts from every file",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of files processed concurrently",
				Value:   4,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks embedded per request",
				Value: 64,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			util.LoadEnv()
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  c.Bool("debug") || util.GetEnvBool("DEBUG", false),
				Prefix: "indexer",
			}))
			return nil
		},
		Action: indexCommand,
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Fatal("Indexing failed", "err", err)
	}
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one source is required", 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, app.LoadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	resolver := newSourceResolver(func(ctx context.Context) (objectStore, error) {
		client, err := storage.NewS3Client(ctx)
		if err != nil {
			return nil, err
		}
		return s3Store{client: client, bucket: storage.Bucket()}, nil
	})
	files, err := resolver.Resolve(ctx, c.Args().Slice())
	if err != nil {
		return err
	}
	logger.Info("Resolved sources", "files", len(files), "graph", c.Bool("graph"))

	ingestor := graph.NewIngestor(graph.NewIngestorParams{
		Extractor: graph.NewGraphExtractor(a.AI, a.Config.ExtractModel),
		Graph:     a.Graph,
		Vectors:   a.Vectors,
		Embedder:  a.AI,

		ParallelAiRequests: int(a.Config.ParallelReq),
		EmbedBatchSize:     c.Int("batch-size"),
	})

	defer timing.Track("Indexing")()

	var stats indexStats
	err = a.Locks.LockIndexer(ctx, func(ctx context.Context) error {
		var indexErr error
		stats, indexErr = indexFiles(ctx, ingestor, files, c.Int("workers"), c.Bool("graph"))
		return indexErr
	})
	if err != nil {
		return err
	}

	timing.LogAIMetrics(a.AI.GetMetrics())
	logger.Info("Indexing finished", "files", stats.Files, "passages", stats.Passages, "failed", stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", stats.Failed, len(files))
	}
	return nil
}
