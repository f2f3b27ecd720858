package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/madewith/chatbot/backend/internal/util"
	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/logger"
	"github.com/madewith/chatbot/backend/pkg/store"

	"golang.org/x/sync/errgroup"
)

// SourceQuestion tags documents that came from user questions.
const SourceQuestion = "question"

// Ingestor turns text into graph facts and, when a vector store is
// configured, into passages for similarity search.
//
// An Ingestor should be created using NewIngestor.
type Ingestor struct {
	extractor *GraphExtractor
	graph     store.GraphStorage
	vectors   store.VectorStorage
	embedder  ai.Embedder

	parallelAiRequests int
	maxRetries         int
	embedBatchSize     int
}

// NewIngestorParams configures an Ingestor.
//
// Vectors and Embedder are optional; without them only the graph is
// written. ParallelAiRequests bounds concurrent extraction calls and
// MaxRetries the attempts per chunk.
type NewIngestorParams struct {
	Extractor *GraphExtractor
	Graph     store.GraphStorage
	Vectors   store.VectorStorage
	Embedder  ai.Embedder

	ParallelAiRequests int
	MaxRetries         int
	EmbedBatchSize     int
}

// NewIngestor creates an Ingestor.
//
// Example:
//
//	ingestor := graph.NewIngestor(graph.NewIngestorParams{
//		Extractor: graph.NewGraphExtractor(aiClient, ""),
//		Graph:     graphStore,
//		Vectors:   vectorStore,
//		Embedder:  aiClient,
//	})
//	err := ingestor.Ingest(ctx, "What ingredients are in Aero?")
func NewIngestor(params NewIngestorParams) *Ingestor {
	parallel := params.ParallelAiRequests
	if parallel <= 0 {
		parallel = 4
	}
	retries := params.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	batch := params.EmbedBatchSize
	if batch <= 0 {
		batch = 64
	}

	return &Ingestor{
		extractor:          params.Extractor,
		graph:              params.Graph,
		vectors:            params.Vectors,
		embedder:           params.Embedder,
		parallelAiRequests: parallel,
		maxRetries:         retries,
		embedBatchSize:     batch,
	}
}

var errNoVectorIndex = errors.New("ingestor has no vector index")

// Ingest adds a user question to the graph.
func (i *Ingestor) Ingest(ctx context.Context, text string) error {
	_, err := i.IngestDocument(ctx, text, SourceQuestion)
	return err
}

// IngestDocument splits text, extracts one graph document per chunk and
// merges them all in a single call. It returns how many chunks were also
// written to the vector index. Nothing is retried past MaxRetries.
func (i *Ingestor) IngestDocument(ctx context.Context, text string, source string) (int, error) {
	chunks, err := SplitText(text)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]common.Document, len(chunks))
	for idx, chunk := range chunks {
		docs[idx] = common.NewDocument(chunk, map[string]any{"source": source})
	}

	graphDocs := make([]common.GraphDocument, len(docs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(i.parallelAiRequests)
	for idx, doc := range docs {
		g.Go(func() error {
			gd, err := util.RetryWithContext(gCtx, i.maxRetries, time.Second, func(ctx context.Context) (common.GraphDocument, error) {
				return i.extractor.Extract(ctx, doc)
			})
			if err != nil {
				return fmt.Errorf("chunk %d: %w", idx, err)
			}
			graphDocs[idx] = gd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	logger.Debug("[Graph] Adding graph documents", "documents", len(graphDocs), "source", source)
	if err := i.graph.MergeDocuments(ctx, graphDocs, store.MergeOptions{
		IncludeSource:   true,
		BaseEntityLabel: true,
	}); err != nil {
		return 0, err
	}

	if i.vectors == nil || i.embedder == nil {
		return 0, nil
	}
	if err := i.addPassages(ctx, docs, source); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// IndexText splits text and adds its chunks to the vector index only.
func (i *Ingestor) IndexText(ctx context.Context, text string, source string) (int, error) {
	if i.vectors == nil || i.embedder == nil {
		return 0, errNoVectorIndex
	}

	chunks, err := SplitText(text)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]common.Document, len(chunks))
	for idx, chunk := range chunks {
		docs[idx] = common.NewDocument(chunk, map[string]any{"source": source})
	}
	return len(docs), i.addPassages(ctx, docs, source)
}

func (i *Ingestor) addPassages(ctx context.Context, docs []common.Document, source string) error {
	inputs := make([][]byte, len(docs))
	passages := make([]common.Passage, len(docs))
	for idx, doc := range docs {
		inputs[idx] = []byte(doc.Text)
		passages[idx] = common.Passage{ID: doc.ID, Source: source, Text: doc.Text}
	}

	embeddings, err := store.GenerateEmbeddings(ctx, i.embedder, inputs, i.embedBatchSize)
	if err != nil {
		return err
	}
	return i.vectors.AddPassages(ctx, passages, embeddings)
}
