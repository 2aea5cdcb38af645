package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	inventoryerrors "hotelbooking/internal/inventory/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RoomRepository interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindByIDAndHotel(ctx context.Context, id string, hotelID string) (*model.Room, error)
	// Lock takes a write lock on the room for the rest of the enclosing
	// transaction and returns its current state. Concurrent transactions
	// touching the same room conflict and are retried.
	Lock(ctx context.Context, id string) (*model.Room, error)
	SetStatus(ctx context.Context, id string, status string, at time.Time) error
}

type mongoRoomRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		cfg:        cfg,
		collection: db.Collection(RoomsCollection),
	}
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	return r.decodeOne(r.collection.FindOne(ctx, bson.M{"_id": objectID}))
}

func (r *mongoRoomRepository) FindByIDAndHotel(ctx context.Context, id string, hotelID string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "hotel_id": hotelID}
	return r.decodeOne(r.collection.FindOne(ctx, filter))
}

func (r *mongoRoomRepository) Lock(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"lock_version": 1}}
	return r.decodeOne(r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts))
}

func (r *mongoRoomRepository) SetStatus(ctx context.Context, id string, status string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{"status": status, "updated_at": at}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	if result.MatchedCount == 0 {
		return inventoryerrors.ErrRoomNotFound
	}
	return nil
}

func (r *mongoRoomRepository) decodeOne(res *mongo.SingleResult) (*model.Room, error) {
	var room model.Room
	if err := res.Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}
