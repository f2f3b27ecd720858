package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/madewith/chatbot/backend/pkg/loader"
	"github.com/madewith/chatbot/backend/pkg/logger"

	"github.com/panjf2000/ants/v2"
)

type indexer interface {
	IndexText(ctx context.Context, text string, source string) (int, error)
	IngestDocument(ctx context.Context, text string, source string) (int, error)
}

type indexStats struct {
	Files    int64
	Passages int64
	Failed   int64
}

// indexFiles loads every file on a pool of workers and adds it to the
// vector index, or to graph and vector index when withGraph is set. A
// failing file is logged and counted; the others continue.
func indexFiles(ctx context.Context, idx indexer, files []loader.SourceFile, workers int, withGraph bool) (indexStats, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return indexStats{}, err
	}
	defer pool.Release()

	var (
		wg                      sync.WaitGroup
		indexed, passages, fail atomic.Int64
	)

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			n, err := indexFile(ctx, idx, file, withGraph)
			if err != nil {
				fail.Add(1)
				logger.Error("[Indexer] Failed to index file", "path", file.Path, "err", err)
				return
			}
			indexed.Add(1)
			passages.Add(int64(n))
			logger.Debug("[Indexer] Indexed file", "path", file.Path, "passages", n)
		})
		if err != nil {
			wg.Done()
			fail.Add(1)
			logger.Error("[Indexer] Failed to schedule file", "path", file.Path, "err", err)
		}
	}
	wg.Wait()

	stats := indexStats{
		Files:    indexed.Load(),
		Passages: passages.Load(),
		Failed:   fail.Load(),
	}
	return stats, ctx.Err()
}

func indexFile(ctx context.Context, idx indexer, file loader.SourceFile, withGraph bool) (int, error) {
	text, err := file.GetText(ctx)
	if err != nil {
		return 0, err
	}

	if withGraph {
		return idx.IngestDocument(ctx, string(text), file.Path)
	}
	return idx.IndexText(ctx, string(text), file.Path)
}
