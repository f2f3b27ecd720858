package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// VectorDBStorage implements store.VectorStorage on PostgreSQL with
// pgvector. Passages are ranked by cosine distance.
type VectorDBStorage struct {
	conn      pgxIConn
	batchSize int
}

type VectorDBStorageOption func(*VectorDBStorage)

// WithBatchSize sets how many passages are written per transaction.
func WithBatchSize(n int) VectorDBStorageOption {
	return func(s *VectorDBStorage) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewVectorDBStorageWithConnection creates a VectorDBStorage on an existing
// pool or connection.
func NewVectorDBStorageWithConnection(
	conn pgxIConn,
	opts ...VectorDBStorageOption,
) *VectorDBStorage {
	s := &VectorDBStorage{
		conn:      conn,
		batchSize: 500,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}
