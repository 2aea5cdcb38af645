package repository

import (
	"context"
	"errors"
	"fmt"

	customerserrors "hotelbooking/internal/customers/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Users"

type CustomerRepository interface {
	// FindOrCreateByPhone returns the user owning user.Phone, inserting user
	// when no such account exists. Existing accounts are never modified.
	FindOrCreateByPhone(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCustomerRepository) FindOrCreateByPhone(ctx context.Context, user *model.User) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$setOnInsert": bson.M{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
			"role":       user.Role,
			"created_at": user.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"phone": user.Phone}, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create customer: %w", err)
	}
	return &stored, nil
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return &user, nil
}
