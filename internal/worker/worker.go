package worker

import (
	"context"
	"encoding/json"
	"time"

	"importer/internal/config"
	"importer/internal/database"
	"importer/internal/logger"
	"importer/internal/pipeline"

	"github.com/segmentio/kafka-go"
)

// Worker consumes import jobs from Kafka and runs the full pipeline for
// each. One job is processed at a time; the pipeline itself bounds its own
// concurrency.
type Worker struct {
	config *config.Config
	logger *logger.Logger
	reader *kafka.Reader
	runner *pipeline.Runner
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.KafkaBrokers},
		GroupID:        "importer-worker",
		Topic:          "import-jobs",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config: cfg,
		logger: logger,
		reader: reader,
		runner: pipeline.NewRunner(cfg, db, logger),
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for import jobs...")

	for {
		message, err := w.reader.ReadMessage(context.Background())
		if err != nil {
			w.logger.Error("Failed to read message: %v", err)
			return
		}

		w.logger.Debug("Received job: %s", string(message.Value))

		var job pipeline.RunRequest
		if err := json.Unmarshal(message.Value, &job); err != nil {
			w.logger.Error("Failed to parse import job: %v", err)
			continue
		}
		if job.Shop == "" {
			job.Shop = w.config.ShopifyStore
		}

		// A whole run is bounded so a wedged remote call cannot stall
		// the consumer forever.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		summary, err := w.runner.Run(ctx, job)
		cancel()

		if err != nil {
			w.logger.Error("Import job failed: %v", err)
			continue
		}

		w.logger.Info("Import job done: batch %s, %d imported, %d failed of %d",
			summary.BatchID, summary.Imported, summary.Failed, summary.Total)
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
