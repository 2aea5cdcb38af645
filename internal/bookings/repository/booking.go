package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// FindOverlapping returns the first booking of roomID in one of statuses
	// whose [checkin, checkout) range intersects the given one, or nil.
	FindOverlapping(ctx context.Context, roomID string, checkin, checkout time.Time, statuses []string) (*model.Booking, error)
	// FindDuplicate returns a booking with the exact same guest, room and dates, or nil.
	FindDuplicate(ctx context.Context, userID, hotelID, roomID string, checkin, checkout time.Time, statuses []string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status string, at time.Time) error
	// FindExpiredPending pages through pending_payment bookings created
	// before createdBefore in (created_at, id) order, starting after the
	// cursor when one is given.
	FindExpiredPending(ctx context.Context, createdBefore time.Time, after *model.BookingCursor, limit int) ([]*model.Booking, error)
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

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
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindOverlapping(ctx context.Context, roomID string, checkin, checkout time.Time, statuses []string) (*model.Booking, error) {
	filter := bson.M{
		"room_id":       roomID,
		"status":        bson.M{"$in": statuses},
		"checkin_date":  bson.M{"$lt": checkout},
		"checkout_date": bson.M{"$gt": checkin},
	}
	return r.findOptional(ctx, filter)
}

func (r *mongoBookingRepository) FindDuplicate(ctx context.Context, userID, hotelID, roomID string, checkin, checkout time.Time, statuses []string) (*model.Booking, error) {
	filter := bson.M{
		"user_id":       userID,
		"hotel_id":      hotelID,
		"room_id":       roomID,
		"checkin_date":  checkin,
		"checkout_date": checkout,
		"status":        bson.M{"$in": statuses},
	}
	return r.findOptional(ctx, filter)
}

func (r *mongoBookingRepository) findOptional(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, status string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{"status": status, "updated_at": at}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) FindExpiredPending(ctx context.Context, createdBefore time.Time, after *model.BookingCursor, limit int) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.BookingStatusPendingPayment,
		"created_at": bson.M{"$lt": createdBefore},
	}
	if after != nil {
		afterID, err := primitive.ObjectIDFromHex(after.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, after.ID)
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$gt": after.CreatedAt}},
			bson.M{"created_at": after.CreatedAt, "_id": bson.M{"$gt": afterID}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}
