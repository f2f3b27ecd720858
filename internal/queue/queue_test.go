package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type declared struct {
	name string
	args amqp091.Table
}

type fakeChannel struct {
	declared  []declared
	published []published
	err       error
}

type published struct {
	key string
	msg amqp091.Publishing
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	f.declared = append(f.declared, declared{name: name, args: args})
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, published{key: key, msg: msg})
	return nil
}

type fakeAcknowledger struct {
	acks  int
	nacks int
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacks++
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

type recordingIngester struct {
	texts []string
	err   error
}

func (r *recordingIngester) Ingest(ctx context.Context, text string) error {
	r.texts = append(r.texts, text)
	return r.err
}

type recordingLocker struct {
	texts []string
}

func (r *recordingLocker) LockText(ctx context.Context, text string, fn func(ctx context.Context) error) error {
	r.texts = append(r.texts, text)
	return fn(ctx)
}

func TestSetupQueues(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, SetupQueues(ch, Queues))

	require.Len(t, ch.declared, 3)
	assert.Equal(t, "ingest_queue", ch.declared[0].name)
	assert.Equal(t, "ingest_queue_dlq", ch.declared[1].name)
	assert.Equal(t, "ingest_queue_retry", ch.declared[2].name)
	assert.Equal(t, "ingest_queue", ch.declared[2].args["x-dead-letter-routing-key"])
}

func TestIngestPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := NewIngestPublisher(ch)

	require.NoError(t, p.Ingest(context.Background(), "What is in Aero?"))
	require.Len(t, ch.published, 1)

	pub := ch.published[0]
	assert.Equal(t, IngestQueue, pub.key)
	assert.Equal(t, amqp091.Persistent, pub.msg.DeliveryMode)

	var msg IngestMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &msg))
	assert.Equal(t, "What is in Aero?", msg.Text)
	assert.Equal(t, msg.ID, pub.msg.CorrelationId)
	_, err := uuid.Parse(msg.ID)
	assert.NoError(t, err)
}

func TestIngestPublisherError(t *testing.T) {
	p := NewIngestPublisher(&fakeChannel{err: errors.New("channel closed")})
	err := p.Ingest(context.Background(), "q")
	assert.ErrorContains(t, err, "channel closed")
}

func TestProcessIngestMessage(t *testing.T) {
	body, err := json.Marshal(IngestMessage{ID: "1", Text: "Where is Smarties made?"})
	require.NoError(t, err)

	t.Run("without locker", func(t *testing.T) {
		ing := &recordingIngester{}
		require.NoError(t, ProcessIngestMessage(context.Background(), ing, nil, body))
		assert.Equal(t, []string{"Where is Smarties made?"}, ing.texts)
	})

	t.Run("with locker", func(t *testing.T) {
		ing := &recordingIngester{}
		locker := &recordingLocker{}
		require.NoError(t, ProcessIngestMessage(context.Background(), ing, locker, body))
		assert.Equal(t, []string{"Where is Smarties made?"}, locker.texts)
		assert.Len(t, ing.texts, 1)
	})

	t.Run("ingest error", func(t *testing.T) {
		ing := &recordingIngester{err: errors.New("neo4j down")}
		err := ProcessIngestMessage(context.Background(), ing, nil, body)
		assert.ErrorContains(t, err, "neo4j down")
	})

	t.Run("invalid body", func(t *testing.T) {
		err := ProcessIngestMessage(context.Background(), &recordingIngester{}, nil, []byte("{"))
		assert.Error(t, err)
	})

	t.Run("empty text", func(t *testing.T) {
		ing := &recordingIngester{}
		require.NoError(t, ProcessIngestMessage(context.Background(), ing, nil, []byte(`{"id":"2","text":""}`)))
		assert.Empty(t, ing.texts)
	})
}

func TestHandleProcessingError(t *testing.T) {
	t.Run("first failure goes to retry", func(t *testing.T) {
		ch := &fakeChannel{}
		ack := &fakeAcknowledger{}
		msg := amqp091.Delivery{Acknowledger: ack, Body: []byte("x"), CorrelationId: "c1"}

		HandleProcessingError(context.Background(), ch, msg, IngestQueue, DefaultMaxRetries)

		require.Len(t, ch.published, 1)
		assert.Equal(t, "ingest_queue_retry", ch.published[0].key)
		assert.Equal(t, int32(1), ch.published[0].msg.Headers["x-retries"])
		assert.Equal(t, "c1", ch.published[0].msg.CorrelationId)
		assert.Equal(t, 1, ack.acks)
	})

	t.Run("retry counter keeps counting", func(t *testing.T) {
		ch := &fakeChannel{}
		ack := &fakeAcknowledger{}
		msg := amqp091.Delivery{Acknowledger: ack, Headers: amqp091.Table{"x-retries": int64(3)}}

		HandleProcessingError(context.Background(), ch, msg, IngestQueue, DefaultMaxRetries)

		require.Len(t, ch.published, 1)
		assert.Equal(t, int32(4), ch.published[0].msg.Headers["x-retries"])
	})

	t.Run("exhausted goes to dlq", func(t *testing.T) {
		ch := &fakeChannel{}
		ack := &fakeAcknowledger{}
		msg := amqp091.Delivery{Acknowledger: ack, Headers: amqp091.Table{"x-retries": int32(DefaultMaxRetries)}}

		HandleProcessingError(context.Background(), ch, msg, IngestQueue, DefaultMaxRetries)

		require.Len(t, ch.published, 1)
		assert.Equal(t, "ingest_queue_dlq", ch.published[0].key)
		assert.Equal(t, 1, ack.acks)
	})

	t.Run("publish failure requeues", func(t *testing.T) {
		ch := &fakeChannel{err: errors.New("closed")}
		ack := &fakeAcknowledger{}
		msg := amqp091.Delivery{Acknowledger: ack}

		HandleProcessingError(context.Background(), ch, msg, IngestQueue, DefaultMaxRetries)

		assert.Equal(t, 0, ack.acks)
		assert.Equal(t, 1, ack.nacks)
	})
}
