package repository

import (
	"context"
	"errors"
	"fmt"

	paymentserrors "hotelbooking/internal/payments/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName     = "Payments"
	LogsCollectionName = "Payment_logs"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	FindByBooking(ctx context.Context, bookingID string) (*model.Payment, error)
	FindByProviderReference(ctx context.Context, reference string) (*model.Payment, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*model.Payment, error)
	// Update persists the mutable fields of payment.
	Update(ctx context.Context, payment *model.Payment) error
	Delete(ctx context.Context, id string) error
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return paymentserrors.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoPaymentRepository) FindByBooking(ctx context.Context, bookingID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{"booking_id": bookingID})
}

func (r *mongoPaymentRepository) FindByProviderReference(ctx context.Context, reference string) (*model.Payment, error) {
	if reference == "" {
		return nil, paymentserrors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"provider_reference": reference})
}

func (r *mongoPaymentRepository) findOne(ctx context.Context, filter bson.M) (*model.Payment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var payment model.Payment
	err := r.collection.FindOne(ctx, filter).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &payment, nil
}

func (r *mongoPaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]*model.Payment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []*model.Payment{}
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

func (r *mongoPaymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(payment.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, payment.ID)
	}

	set := bson.M{
		"provider":   payment.Provider,
		"status":     payment.Status,
		"updated_at": payment.UpdatedAt,
	}
	unset := bson.M{}
	optional := map[string]string{
		"provider_reference": payment.ProviderReference,
		"transaction_id":     payment.TransactionID,
		"error_message":      payment.ErrorMessage,
	}
	for field, value := range optional {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return paymentserrors.ErrDuplicateReference
		}
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return paymentserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPaymentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if result.DeletedCount == 0 {
		return paymentserrors.ErrNotFound
	}
	return nil
}
