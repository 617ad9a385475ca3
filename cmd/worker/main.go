package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/definitelynotaspy/intel-service/internal/queue"
	"github.com/definitelynotaspy/intel-service/internal/server"
	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/ingest"
	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/logger/console"
)

// processMessage is the wire shape the crawler service publishes.
type processMessage struct {
	JobID   string               `json:"job_id"`
	Results []ingest.CrawlResult `json:"results"`
}

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	app := server.NewApp(ctx)
	if app.Oracle == nil {
		logger.Fatal("Extraction backend unavailable, worker cannot run")
	}

	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.ProcessQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	// One message at a time; batches can take minutes of model work.
	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.ProcessQueue,
		queue.ProcessQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.ProcessQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.ProcessQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed")
					return
				}

				logger.Info("Received message", "queue", queue.ProcessQueue)

				var payload processMessage
				if err := json.Unmarshal(msg.Body, &payload); err != nil {
					logger.Error("Failed to decode message", "err", err)
					queue.HandleProcessingError(consumerCh, msg, queue.ProcessQueue)
					continue
				}

				result, err := app.Coordinator.ProcessBatch(ctx, payload.JobID, payload.Results)
				if err != nil {
					logger.Error("Error processing message", "job_id", payload.JobID, "err", err)
					queue.HandleProcessingError(consumerCh, msg, queue.ProcessQueue)
					continue
				}

				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
					continue
				}
				logger.Info("Message processed successfully",
					"job_id", payload.JobID,
					"processed", result.ProcessedCount,
					"entities", result.EntitiesFound,
				)
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}
