package repository

import (
	"context"
	"fmt"

	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentLogRepository is append-only apart from the cascade on payment deletion.
type PaymentLogRepository interface {
	Append(ctx context.Context, entry *model.PaymentLog) error
	ListByPayment(ctx context.Context, paymentID string) ([]*model.PaymentLog, error)
	DeleteByPayment(ctx context.Context, paymentID string) (int64, error)
}

type mongoPaymentLogRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPaymentLogRepository(cfg *config.Config) PaymentLogRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentLogRepository{
		cfg:        cfg,
		collection: db.Collection(LogsCollectionName),
	}
}

func (r *mongoPaymentLogRepository) Append(ctx context.Context, entry *model.PaymentLog) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append payment log: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPaymentLogRepository) ListByPayment(ctx context.Context, paymentID string) ([]*model.PaymentLog, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"payment_id": paymentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := []*model.PaymentLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode payment logs: %w", err)
	}
	return logs, nil
}

func (r *mongoPaymentLogRepository) DeleteByPayment(ctx context.Context, paymentID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"payment_id": paymentID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete payment logs: %w", err)
	}
	return result.DeletedCount, nil
}
