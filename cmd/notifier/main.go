package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"nucleus/internal/notify"
	"nucleus/pkg/config"
	kafka_config "nucleus/pkg/kafka/config"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	worker, err := notify.NewWorker(notify.WorkerConfig{
		KafkaConfig:        kafkaCfg,
		NotificationsTopic: cfg.NotificationsTopic,
		ActivityTopic:      cfg.ActivityTopic,
		DLQTopic:           cfg.EventsDLQTopic,
		GroupID:            cfg.NotifierGroupID,
	},
		notify.NewMongoNotificationStore(cfg),
		notify.NewMongoActivityStore(cfg),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create notifier worker", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting notifier worker",
		"notifications_topic", cfg.NotificationsTopic,
		"activity_topic", cfg.ActivityTopic,
		"group_id", cfg.NotifierGroupID,
	)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Notifier worker stopped with error", "error", err)
	}

	if err := worker.Close(); err != nil {
		cfg.Log.Error("Failed to close notifier worker", "error", err)
	}
	cfg.Log.Info("Notifier worker stopped")
}
