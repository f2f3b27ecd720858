package pgx

import (
	"context"
	"fmt"

	"github.com/madewith/chatbot/backend/internal/util"
	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/logger"
	"github.com/madewith/chatbot/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the width of passages.embedding as created by the
// migrations. Embedders must produce vectors of exactly this size.
const EmbeddingDimensions = 1536

const similaritySearchQuery = `
SELECT public_id, source, text
FROM passages
ORDER BY embedding <=> $1
LIMIT $2
`

const upsertPassageQuery = `
INSERT INTO passages (public_id, source, text, embedding)
VALUES ($1, $2, $3, $4)
ON CONFLICT (public_id) DO UPDATE
SET source = EXCLUDED.source,
    text = EXCLUDED.text,
    embedding = EXCLUDED.embedding,
    updated_at = now()
`

// SimilaritySearch returns the k passages closest to embedding, nearest first.
func (s *VectorDBStorage) SimilaritySearch(
	ctx context.Context,
	embedding []float32,
	k int,
) ([]common.Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, similaritySearchQuery, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}

	passages, err := pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.Passage, error) {
		var p common.Passage
		err := row.Scan(&p.ID, &p.Source, &p.Text)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan passages: %w", err)
	}

	return passages, nil
}

// AddPassages upserts passages with their embeddings. Passages without an
// ID get a generated one.
func (s *VectorDBStorage) AddPassages(
	ctx context.Context,
	passages []common.Passage,
	embeddings [][]float32,
) error {
	if len(passages) != len(embeddings) {
		return fmt.Errorf("got %d passages but %d embeddings", len(passages), len(embeddings))
	}
	if len(passages) == 0 {
		return nil
	}

	logger.Debug("[Vector][AddPassages] Upserting passages", "passages", len(passages))

	return store.ChunkRange(len(passages), s.batchSize, func(start, end int) error {
		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		batch := &pgxv5.Batch{}
		for i := start; i < end; i++ {
			p := passages[i]
			if p.ID == "" {
				id, err := gonanoid.New()
				if err != nil {
					return err
				}
				p.ID = id
			}
			batch.Queue(
				upsertPassageQuery,
				p.ID,
				p.Source,
				util.SanitizePostgresText(p.Text),
				pgvector.NewVector(embeddings[i]),
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert passages %d-%d: %w", start, end, err)
		}

		return tx.Commit(ctx)
	})
}
