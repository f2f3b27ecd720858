package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/madewith/chatbot/backend/pkg/logger"

	"github.com/google/uuid"
)

// IngestMessage is the body of an ingest_queue message.
type IngestMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestPublisher hands question text to the worker instead of ingesting
// it inline.
type IngestPublisher struct {
	ch    Publisher
	queue string
}

func NewIngestPublisher(ch Publisher) *IngestPublisher {
	return &IngestPublisher{ch: ch, queue: IngestQueue}
}

// Ingest publishes text to the ingest queue. The message id doubles as the
// AMQP correlation id.
func (p *IngestPublisher) Ingest(ctx context.Context, text string) error {
	msg := IngestMessage{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := PublishFIFO(ctx, p.ch, p.queue, msg.ID, data); err != nil {
		return fmt.Errorf("failed to publish ingest message: %w", err)
	}
	logger.Debug("[Queue] Published ingest message", "id", msg.ID)
	return nil
}

// Ingester runs the ingestion pipeline for one text.
type Ingester interface {
	Ingest(ctx context.Context, text string) error
}

// Locker serialises ingestion of identical text across workers.
type Locker interface {
	LockText(ctx context.Context, text string, fn func(ctx context.Context) error) error
}

// ProcessIngestMessage decodes body and ingests its text. When locker is
// set, identical texts are never merged into the graph concurrently.
func ProcessIngestMessage(ctx context.Context, ingester Ingester, locker Locker, body []byte) error {
	var msg IngestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to decode ingest message: %w", err)
	}
	if msg.Text == "" {
		logger.Warn("[Queue] Skipping empty ingest message", "id", msg.ID)
		return nil
	}

	run := func(ctx context.Context) error {
		return ingester.Ingest(ctx, msg.Text)
	}
	if locker == nil {
		return run(ctx)
	}

	return locker.LockText(ctx, msg.Text, run)
}
