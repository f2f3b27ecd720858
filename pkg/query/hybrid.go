package query

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// HybridRetriever builds the answer context from the knowledge graph and
// the vector index.
type HybridRetriever struct {
	entities *EntityExtractor
	graph    *GraphRetriever
	vector   *VectorRetriever
	trace    Tracer
}

// NewHybridRetrieverParams wires the retrieval stages.
type NewHybridRetrieverParams struct {
	Entities *EntityExtractor
	Graph    *GraphRetriever
	Vector   *VectorRetriever
	Tracer   Tracer
}

func NewHybridRetriever(params NewHybridRetrieverParams) *HybridRetriever {
	return &HybridRetriever{
		entities: params.Entities,
		graph:    params.Graph,
		vector:   params.Vector,
		trace:    params.Tracer,
	}
}

// Retrieve runs the graph branch (entity extraction, then neighbourhood
// lookup) and the vector branch concurrently and fuses both. Only a vector
// failure is returned; the graph branch degrades to no facts.
func (h *HybridRetriever) Retrieve(ctx context.Context, question string) (string, error) {
	var (
		graphResult GraphResult
		passages    []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		terms := h.entities.Extract(gctx, question)
		RecordExtractedTerms(h.trace, terms...)
		graphResult = h.graph.Retrieve(gctx, terms)
		return nil
	})
	g.Go(func() error {
		var err error
		passages, err = h.vector.Retrieve(gctx, question)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	return FuseContext(graphResult.Facts(), passages), nil
}
