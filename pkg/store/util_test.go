package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	batches [][]string
	fail    bool
}

func (e *countingEmbedder) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{float32(len(input))}, nil
}

func (e *countingEmbedder) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if e.fail {
		return nil, errors.New("boom")
	}
	batch := make([]string, 0, len(inputs))
	out := make([][]float32, 0, len(inputs))
	for _, in := range inputs {
		batch = append(batch, string(in))
		out = append(out, []float32{float32(len(in))})
	}
	e.batches = append(e.batches, batch)
	return out, nil
}

func TestChunkRange(t *testing.T) {
	var windows [][2]int
	err := ChunkRange(5, 2, func(start, end int) error {
		windows = append(windows, [2]int{start, end})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, windows)

	calls := 0
	require.NoError(t, ChunkRange(0, 2, func(int, int) error { calls++; return nil }))
	assert.Zero(t, calls)
}

func TestGenerateEmbeddings_Batches(t *testing.T) {
	emb := &countingEmbedder{}
	out, err := GenerateEmbeddings(context.Background(), emb, [][]byte{
		[]byte("a"), []byte("bb"), []byte("ccc"),
	}, 2)
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1}, {2}, {3}}, out)
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, emb.batches)
}

func TestGenerateEmbeddings_Error(t *testing.T) {
	_, err := GenerateEmbeddings(context.Background(), &countingEmbedder{fail: true}, [][]byte{[]byte("a")}, 2)
	assert.ErrorContains(t, err, "boom")
}
