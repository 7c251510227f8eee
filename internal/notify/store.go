package notify

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"nucleus/pkg/config"
	"nucleus/pkg/model"
)

const (
	NotificationsCollection = "Notifications"
	ActivityCollection      = "Activity"
)

// NotificationStore persists notifications consumed off the event bus.
type NotificationStore interface {
	Insert(ctx context.Context, n *model.Notification) error
}

// ActivityStore persists audit-trail entries consumed off the event bus.
type ActivityStore interface {
	Insert(ctx context.Context, entry *model.ActivityEntry) error
}

type mongoNotificationStore struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoNotificationStore(cfg *config.Config) NotificationStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoNotificationStore{
		cfg:        cfg,
		collection: db.Collection(NotificationsCollection),
	}
}

func (s *mongoNotificationStore) Insert(ctx context.Context, n *model.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := s.collection.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid.Hex()
	}
	return nil
}

type mongoActivityStore struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoActivityStore(cfg *config.Config) ActivityStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoActivityStore{
		cfg:        cfg,
		collection: db.Collection(ActivityCollection),
	}
}

func (s *mongoActivityStore) Insert(ctx context.Context, entry *model.ActivityEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := s.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}
