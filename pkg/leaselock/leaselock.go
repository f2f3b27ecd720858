// Package leaselock keeps ingestion single-flight across processes. A lock is
// a row in ingest_locks that expires unless its owner keeps extending it.
package leaselock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IndexerKey is held for the whole of an indexer run.
const IndexerKey = "indexer"

const (
	defaultTTL          = 2 * time.Minute
	defaultPollInterval = 500 * time.Millisecond
)

var (
	ErrBusy = errors.New("ingest lock busy")
	ErrLost = errors.New("ingest lock lost")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Locker struct {
	db   dbConn
	ttl  time.Duration
	poll time.Duration
}

type Option func(*Locker)

// WithTTL sets how long a lock survives without being extended. Owners
// extend it every ttl/2.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithPollInterval sets how often LockText retries a held key.
func WithPollInterval(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.poll = d
		}
	}
}

func New(db dbConn, opts ...Option) *Locker {
	l := &Locker{db: db, ttl: defaultTTL, poll: defaultPollInterval}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TextKey is the lock key for ingesting text. It shares the md5 digest with
// the graph document built from the same text.
func TextKey(text string) string {
	return "ingest:" + common.NewDocument(text, nil).ID
}

// LockText runs fn once no other worker is ingesting the same text, waiting
// for the current holder if needed.
func (l *Locker) LockText(ctx context.Context, text string, fn func(ctx context.Context) error) error {
	return l.hold(ctx, TextKey(text), true, fn)
}

// LockIndexer runs fn as the only indexer. It returns ErrBusy right away when
// another run holds the lock.
func (l *Locker) LockIndexer(ctx context.Context, fn func(ctx context.Context) error) error {
	return l.hold(ctx, IndexerKey, false, fn)
}

func (l *Locker) hold(ctx context.Context, key string, wait bool, fn func(ctx context.Context) error) error {
	owner := uuid.NewString()

	for {
		claimed, err := l.claim(ctx, key, owner)
		if err != nil {
			return fmt.Errorf("failed to claim lock %s: %w", key, err)
		}
		if claimed {
			break
		}
		if !wait {
			return ErrBusy
		}
		logger.Debug("[Lock] Waiting for holder", "key", key)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.poll):
		}
	}

	heldCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go l.extend(heldCtx, cancel, key, owner, done)

	defer func() {
		close(done)
		cancel(nil)
		if _, err := l.db.Exec(context.WithoutCancel(ctx), releaseSQL, key, owner); err != nil {
			logger.Warn("[Lock] Failed to release", "key", key, "err", err)
		}
	}()

	return fn(heldCtx)
}

// extend keeps the lock alive until done is closed. A failed extension
// cancels the holder's context with ErrLost.
func (l *Locker) extend(ctx context.Context, cancel context.CancelCauseFunc, key, owner string, done <-chan struct{}) {
	t := time.NewTicker(l.ttl / 2)
	defer t.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			claimed, err := l.claim(ctx, key, owner)
			if err != nil || !claimed {
				logger.Warn("[Lock] Lost lock", "key", key, "err", err)
				cancel(ErrLost)
				return
			}
		}
	}
}

// claim takes key for owner, or extends it when owner already holds it.
func (l *Locker) claim(ctx context.Context, key, owner string) (bool, error) {
	var claimed bool
	err := l.db.QueryRow(ctx, claimSQL, key, owner, l.ttl.Milliseconds()).Scan(&claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return claimed, err
}

const claimSQL = `
INSERT INTO ingest_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + make_interval(secs => $3::bigint / 1000.0))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by = EXCLUDED.locked_by, expires_at = EXCLUDED.expires_at
WHERE ingest_locks.locked_by = EXCLUDED.locked_by OR ingest_locks.expires_at < now()
RETURNING true;
`

const releaseSQL = `DELETE FROM ingest_locks WHERE lock_key = $1 AND locked_by = $2;`
