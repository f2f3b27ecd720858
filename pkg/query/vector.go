package query

import (
	"context"
	"fmt"

	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/store"
)

const DefaultTopK = 4

// VectorRetriever finds passages similar to a question.
type VectorRetriever struct {
	embedder ai.Embedder
	storage  store.VectorStorage
	k        int
	trace    Tracer
}

func NewVectorRetriever(embedder ai.Embedder, storage store.VectorStorage, k int, trace Tracer) *VectorRetriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &VectorRetriever{
		embedder: embedder,
		storage:  storage,
		k:        k,
		trace:    trace,
	}
}

// Retrieve returns the texts of the top-k passages, most similar first.
func (v *VectorRetriever) Retrieve(ctx context.Context, question string) ([]string, error) {
	embedding, err := v.embedder.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	passages, err := v.storage.SimilaritySearch(ctx, embedding, v.k)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}

	texts := make([]string, 0, len(passages))
	ids := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
		ids = append(ids, p.ID)
	}
	RecordUsedPassageIDs(v.trace, ids...)

	return texts, nil
}
