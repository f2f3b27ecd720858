package queue

import (
	"context"

	"github.com/madewith/chatbot/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	retriesHeader = "x-retries"

	DefaultMaxRetries = 10
)

// Retries reads the retry counter of a delivery.
func Retries(msg amqp091.Delivery) int {
	switch v := msg.Headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError moves a failed delivery to the retry queue, or to
// the dead-letter queue once it was retried maxRetries times. The original
// delivery is acked after the copy was published and requeued otherwise.
func HandleProcessingError(ctx context.Context, ch Publisher, msg amqp091.Delivery, queueName string, maxRetries int) {
	retries := Retries(msg)

	if retries >= maxRetries {
		dlqName := DeadLetterQueue(queueName)
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName, "correlation_id", msg.CorrelationId)
		pubErr := ch.PublishWithContext(
			ctx,
			"",
			dlqName,
			false,
			false,
			amqp091.Publishing{
				ContentType:   msg.ContentType,
				CorrelationId: msg.CorrelationId,
				Body:          msg.Body,
				Headers:       msg.Headers,
				DeliveryMode:  amqp091.Persistent,
			},
		)
		if pubErr != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
		return
	}

	retryName := RetryQueue(queueName)
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retriesHeader] = int32(retries + 1)

	pubErr := ch.PublishWithContext(
		ctx,
		"",
		retryName,
		false,
		false,
		amqp091.Publishing{
			ContentType:   msg.ContentType,
			CorrelationId: msg.CorrelationId,
			Body:          msg.Body,
			Headers:       headers,
			DeliveryMode:  amqp091.Persistent,
		},
	)
	if pubErr != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
