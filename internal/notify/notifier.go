package notify

import (
	"context"
	"time"

	"nucleus/pkg/kafka"
	"nucleus/pkg/logger"
)

// Publisher is the slice of the Kafka producer the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Emitter publishes notification and activity events. Both are side effects
// of booking and resource operations: a publish failure is logged and
// swallowed, it never fails the operation that triggered it.
type Emitter struct {
	notifications Publisher
	activity      Publisher
	source        string
	timeout       time.Duration
	log           *logger.Logger
}

func NewEmitter(notifications, activity Publisher, source string, log *logger.Logger) *Emitter {
	return &Emitter{
		notifications: notifications,
		activity:      activity,
		source:        source,
		timeout:       5 * time.Second,
		log:           log,
	}
}

// Notify publishes a notification for userID. Detached from the caller's
// context so an HTTP response already sent does not cancel the publish.
func (e *Emitter) Notify(userID, title, message, severity string) {
	if e.notifications == nil {
		return
	}

	event := NotificationEvent{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      severity,
		CreatedAt: time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(userID).
		WithValue(event).
		WithEventType(EventTypeNotification).
		WithSource(e.source).
		Build()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if err := e.notifications.Publish(ctx, msg); err != nil {
			e.log.Error("Failed to publish notification event",
				"user_id", userID,
				"title", title,
				"error", err,
			)
		}
	}()
}

// Record publishes an audit-trail entry for an action taken by actorID.
func (e *Emitter) Record(actorID, action, targetType, targetID string, details map[string]string) {
	if e.activity == nil {
		return
	}

	event := ActivityEvent{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(actorID).
		WithValue(event).
		WithEventType(EventTypeActivity).
		WithSource(e.source).
		Build()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if err := e.activity.Publish(ctx, msg); err != nil {
			e.log.Error("Failed to publish activity event",
				"actor_id", actorID,
				"action", action,
				"error", err,
			)
		}
	}()
}
