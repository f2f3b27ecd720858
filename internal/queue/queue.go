package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/madewith/chatbot/backend/internal/util"

	"github.com/rabbitmq/amqp091-go"
)

const (
	IngestQueue = "ingest_queue"

	retryTTLMs = 10000
)

// Queues lists every work queue consumed by the worker.
var Queues = []string{IngestQueue}

// Declarer declares queues on a channel.
type Declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

// Publisher publishes messages on a channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// ConnectionURL builds the broker URL from the RABBITMQ_* variables.
func ConnectionURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnvString("RABBITMQ_HOST", "localhost"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

// SetupQueues declares every queue in queueNames together with its
// dead-letter queue and a retry queue that routes back after a delay.
func SetupQueues(ch Declarer, queueNames []string) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		dlqName := DeadLetterQueue(name)
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", dlqName, err)
		}

		retryName := RetryQueue(name)
		if _, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTLMs),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", retryName, err)
		}
	}

	return nil
}

func RetryQueue(name string) string {
	return name + "_retry"
}

func DeadLetterQueue(name string) string {
	return name + "_dlq"
}

// PublishFIFO publishes a persistent message on the default exchange.
func PublishFIFO(ctx context.Context, ch Publisher, queueName string, correlationID string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		Body:          data,
		DeliveryMode:  amqp091.Persistent,
		Timestamp:     time.Now(),
	}

	return ch.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		publishing,
	)
}
