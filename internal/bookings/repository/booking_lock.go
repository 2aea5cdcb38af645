package repository

import (
	"context"
	"fmt"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LocksCollectionName = "Booking_locks"

// BookingLockRepository provides operations for advisory locks
type BookingLockRepository interface {
	// Create returns ErrLocked if a live lock with the same ID exists.
	Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	// Release removes the lock only while lock.Token still holds it, so a
	// holder that outlived its TTL cannot drop its successor's lock.
	Release(ctx context.Context, lock *model.BookingLock) error
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		collection: db.Collection(LocksCollectionName),
	}
}

// Stale locks whose expires_at has passed are taken over. The TTL monitor
// only runs once a minute, so it cannot be relied on alone.
func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lock.ID,
		"expires_at": bson.M{"$lte": lock.CreatedAt},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clear stale lock: %w", err)
	}

	_, err = r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingserrors.ErrLocked
		}
		return nil, fmt.Errorf("failed to create lock: %w", err)
	}

	return lock, nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lock *model.BookingLock) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "token": lock.Token})
	return err
}
