package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/planit/internal/config"
	"github.com/iliyamo/planit/internal/queue"
)

func newAuditConsumerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-consumer",
		Short: "Consume audit events from RabbitMQ and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(os.Getenv("LOG_LEVEL"))
			acfg := config.LoadAuditConfig()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sink, closeSink, err := openSink(ctx, acfg, logger)
			if err != nil {
				return err
			}
			defer closeSink()
			logger.Info("audit consumer starting", "queue", acfg.Queue)
			return queue.StartAuditConsumer(ctx, acfg.AMQPURL, acfg.Queue, sink, logger)
		},
	}
}

// openSink returns the Mongo sink when MONGO_URI is set and the file sink
// otherwise.  The returned func releases the sink's resources.
func openSink(ctx context.Context, acfg config.AuditConfig, logger *slog.Logger) (queue.Sink, func(), error) {
	if acfg.MongoURI != "" {
		client, err := config.NewMongoClient(ctx, acfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		logger.Info("audit sink: mongo", "database", acfg.MongoDatabase, "collection", acfg.MongoCollection)
		return queue.NewMongoSink(client, acfg.MongoDatabase, acfg.MongoCollection), func() {
			_ = client.Disconnect(context.Background())
		}, nil
	}
	sink, err := queue.NewFileSink(acfg.FileDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit file: %w", err)
	}
	logger.Info("audit sink: file", "path", sink.Path())
	return sink, func() {}, nil
}
