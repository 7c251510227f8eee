package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "nucleus/internal/bookings/errors"
	"nucleus/pkg/config"
	mongotx "nucleus/pkg/db/mongo"
	"nucleus/pkg/model"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error)
	CountByRequester(ctx context.Context, requesterID string) (int64, error)
	FindConflicting(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error)
	FindByResourceWindow(ctx context.Context, resourceID string, dayStart, dayEnd *time.Time) ([]*model.BookingWindow, error)
	UpdateStatus(ctx context.Context, id string, status string, adminNote string) (*mongo.UpdateResult, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless we are already inside a
// transaction; a SessionContext cannot be wrapped without breaking the
// transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"requester_id": requesterID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by requester: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) CountByRequester(ctx context.Context, requesterID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"requester_id": requesterID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings by requester: %w", err)
	}
	return count, nil
}

// conflictFilter matches the pending and approved bookings of a resource
// whose half-open interval overlaps [start, end). Rejected and cancelled
// bookings never conflict. excludeID, when non-empty, drops one booking from
// the match so a booking does not conflict with itself on re-checks.
func conflictFilter(resourceID string, start, end time.Time, excludeID string) (bson.M, error) {
	filter := bson.M{
		"resource_id": resourceID,
		"status":      bson.M{"$in": model.ActiveStatuses},
		"start_time":  bson.M{"$lt": end},
		"end_time":    bson.M{"$gt": start},
	}

	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}
	return filter, nil
}

// resourceWindowFilter matches the active bookings of a resource, restricted
// to those touching the [dayStart, dayEnd] window when bounds are given.
func resourceWindowFilter(resourceID string, dayStart, dayEnd *time.Time) bson.M {
	filter := bson.M{
		"resource_id": resourceID,
		"status":      bson.M{"$in": model.ActiveStatuses},
	}
	if dayStart != nil && dayEnd != nil {
		filter["start_time"] = bson.M{"$lte": *dayEnd}
		filter["end_time"] = bson.M{"$gte": *dayStart}
	}
	return filter
}

func (r *mongoBookingRepository) FindConflicting(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter, err := conflictFilter(resourceID, start, end, excludeID)
	if err != nil {
		return nil, err
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode conflicting bookings: %w", err)
	}
	return bookings, nil
}

// FindByResourceWindow returns the active bookings of a resource projected
// down to their time windows. Nil bounds list every active booking; non-nil
// bounds keep only those touching the [dayStart, dayEnd] window.
func (r *mongoBookingRepository) FindByResourceWindow(ctx context.Context, resourceID string, dayStart, dayEnd *time.Time) ([]*model.BookingWindow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := resourceWindowFilter(resourceID, dayStart, dayEnd)

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetProjection(bson.M{"start_time": 1, "end_time": 1, "status": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings in window: %w", err)
	}
	defer cursor.Close(ctx)

	windows := make([]*model.BookingWindow, 0)
	if err := cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode booking windows: %w", err)
	}
	return windows, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, status string, adminNote string) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if adminNote != "" {
		set["admin_note"] = adminNote
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	return result, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
