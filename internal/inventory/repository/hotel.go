package repository

import (
	"context"
	"errors"
	"fmt"

	inventoryerrors "hotelbooking/internal/inventory/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	HotelsCollection = "Hotels"
	RoomsCollection  = "Rooms"
)

// HotelRepository is read only. Hotels are managed outside this service.
type HotelRepository interface {
	FindByID(ctx context.Context, id string) (*model.Hotel, error)
	FindActiveByID(ctx context.Context, id string) (*model.Hotel, error)
}

type mongoHotelRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHotelRepository(cfg *config.Config) HotelRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHotelRepository{
		cfg:        cfg,
		collection: db.Collection(HotelsCollection),
	}
}

func (r *mongoHotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	return r.findOne(ctx, id, bson.M{})
}

func (r *mongoHotelRepository) FindActiveByID(ctx context.Context, id string) (*model.Hotel, error) {
	return r.findOne(ctx, id, bson.M{"status": model.HotelStatusActive})
}

func (r *mongoHotelRepository) findOne(ctx context.Context, id string, filter bson.M) (*model.Hotel, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", inventoryerrors.ErrInvalidID, id)
	}
	filter["_id"] = objectID

	var hotel model.Hotel
	err = r.collection.FindOne(ctx, filter).Decode(&hotel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrHotelNotFound
		}
		return nil, fmt.Errorf("failed to find hotel: %w", err)
	}

	return &hotel, nil
}
