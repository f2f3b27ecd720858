package store

import (
	"context"

	"github.com/madewith/chatbot/backend/pkg/common"
)

// MergeOptions controls how extracted graph documents are written.
//
// IncludeSource links every entity to a Document node holding the source
// text through a MENTIONS relationship. BaseEntityLabel adds the shared
// __Entity__ label that the full-text index is defined on.
type MergeOptions struct {
	IncludeSource   bool
	BaseEntityLabel bool
}

// GraphStorage is the knowledge graph the chat pipeline reads from and the
// ingestion pipeline writes to.
type GraphStorage interface {
	// FuzzyQuery runs query against the full-text index and returns the
	// one-hop neighbourhood of the matched nodes as "A - REL -> B" facts.
	FuzzyQuery(ctx context.Context, index string, query string, limit int) ([]string, error)
	// MergeDocuments upserts all documents in one write transaction.
	MergeDocuments(ctx context.Context, docs []common.GraphDocument, opts MergeOptions) error
}

// VectorStorage stores passages with their embeddings for similarity search.
type VectorStorage interface {
	SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]common.Passage, error)
	AddPassages(ctx context.Context, passages []common.Passage, embeddings [][]float32) error
}
