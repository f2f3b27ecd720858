package store

import (
	"context"
	"fmt"

	"github.com/madewith/chatbot/backend/pkg/ai"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize over total items.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// GenerateEmbeddings embeds inputs in batches of batchSize, preserving order.
func GenerateEmbeddings(
	ctx context.Context,
	client ai.Embedder,
	inputs [][]byte,
	batchSize int,
) ([][]float32, error) {
	if client == nil {
		return nil, fmt.Errorf("ai client is nil")
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(inputs))
	err := ChunkRange(len(inputs), batchSize, func(start, end int) error {
		res, err := client.GenerateEmbeddings(ctx, inputs[start:end])
		if err != nil {
			return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(res) != end-start {
			return fmt.Errorf("embed batch %d-%d: got %d vectors", start, end, len(res))
		}
		out = append(out, res...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
