package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/madewith/chatbot/backend/internal/app"
	"github.com/madewith/chatbot/backend/internal/queue"
	"github.com/madewith/chatbot/backend/internal/timing"
	"github.com/madewith/chatbot/backend/internal/util"
	"github.com/madewith/chatbot/backend/pkg/logger"
	"github.com/madewith/chatbot/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	a, err := app.New(ctx, app.LoadConfig())
	if err != nil {
		logger.Fatal("Failed to initialise app", "err", err)
	}
	defer a.Close()

	if err := a.OpenQueue(); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// Create a single consumer channel with prefetch=1
	// This ensures only ONE message is delivered at a time
	consumerCh, err := a.AMQP.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	maxRetries := int(util.GetEnvNumeric("QUEUE_MAX_RETRIES", queue.DefaultMaxRetries))

	msgs, err := consumerCh.ConsumeWithContext(
		ctx,
		queue.IngestQueue,
		fmt.Sprintf("%s_consumer", queue.IngestQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.IngestQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.IngestQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.IngestQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.IngestQueue, "correlation_id", msg.CorrelationId)

			processingErr := queue.ProcessIngestMessage(ctx, a.Ingestor, a.Locks, msg.Body)

			// If there was an error send to retry or dead-letter, otherwise ack the message
			if processingErr != nil {
				logger.Error("Error processing message", "queue", queue.IngestQueue, "err", processingErr)
				queue.HandleProcessingError(ctx, a.Queue, msg, queue.IngestQueue, maxRetries)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully", "queue", queue.IngestQueue)
			}

			timing.LogAIMetrics(a.AI.GetMetrics())
			logger.Info("Processing time", "duration", timing.FormatDuration(time.Since(startTime)))
			logger.Info("Waiting for next message")
			a.AI.ResetMetrics()
		}
	}
}
