package notify

import (
	"context"
	"fmt"
	"time"

	"nucleus/pkg/kafka"
	kafka_config "nucleus/pkg/kafka/config"
	kafka_middleware "nucleus/pkg/kafka/middleware"
	"nucleus/pkg/logger"
	"nucleus/pkg/model"
)

// Worker consumes the notification and activity topics and persists each
// event. Consumption is at-least-once: a message is committed only after the
// insert succeeds, so a crash between insert and commit can duplicate a
// notification but never lose one.
type Worker struct {
	notifications *kafka.Consumer
	activity      *kafka.Consumer
	log           *logger.Logger
	statsEvery    time.Duration
}

type WorkerConfig struct {
	KafkaConfig        *kafka_config.Config
	NotificationsTopic string
	ActivityTopic      string
	DLQTopic           string
	GroupID            string
}

func NewWorker(cfg WorkerConfig, notifStore NotificationStore, activityStore ActivityStore, log *logger.Logger) (*Worker, error) {
	w := &Worker{
		log:        log,
		statsEvery: time.Minute,
	}

	notifications, err := kafka.NewConsumer(
		cfg.KafkaConfig,
		cfg.NotificationsTopic,
		cfg.GroupID,
		cfg.DLQTopic,
		w.handleNotification(notifStore),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications consumer: %w", err)
	}

	activity, err := kafka.NewConsumer(
		cfg.KafkaConfig,
		cfg.ActivityTopic,
		cfg.GroupID,
		cfg.DLQTopic,
		w.handleActivity(activityStore),
		log,
	)
	if err != nil {
		notifications.Close()
		return nil, fmt.Errorf("failed to create activity consumer: %w", err)
	}

	for _, c := range []*kafka.Consumer{notifications, activity} {
		c.Use(kafka_middleware.LoggingConsumerMiddleware(log))
		c.Use(kafka_middleware.MetricsConsumerMiddleware())
	}

	w.notifications = notifications
	w.activity = activity
	return w, nil
}

func (w *Worker) handleNotification(store NotificationStore) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event NotificationEvent
		if err := msg.DecodeValue(&event); err != nil {
			return fmt.Errorf("failed to decode notification event: %w", err)
		}

		notification := &model.Notification{
			UserID:    event.UserID,
			Title:     event.Title,
			Message:   event.Message,
			Type:      event.Type,
			CreatedAt: event.CreatedAt,
		}
		return store.Insert(ctx, notification)
	}
}

func (w *Worker) handleActivity(store ActivityStore) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event ActivityEvent
		if err := msg.DecodeValue(&event); err != nil {
			return fmt.Errorf("failed to decode activity event: %w", err)
		}

		entry := &model.ActivityEntry{
			ActorID:    event.ActorID,
			Action:     event.Action,
			TargetType: event.TargetType,
			TargetID:   event.TargetID,
			Details:    event.Details,
			CreatedAt:  event.CreatedAt,
		}
		return store.Insert(ctx, entry)
	}
}

// Run starts both consumers and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		errCh <- w.notifications.Start(ctx)
	}()
	go func() {
		errCh <- w.activity.Start(ctx)
	}()
	go w.logStats(ctx)

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *Worker) logStats(ctx context.Context) {
	ticker := time.NewTicker(w.statsEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m := kafka_middleware.GetMetrics()
			w.log.Info("Notifier stats",
				"consumed", m.Consumed(),
				"avg_consume_duration", m.AvgConsumeDuration().String(),
			)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) Close() error {
	err := w.notifications.Close()
	if closeErr := w.activity.Close(); err == nil {
		err = closeErr
	}
	return err
}
