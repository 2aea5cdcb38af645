package mongo

import (
	"context"
	"fmt"
	"sort"

	bookingsrepo "hotelbooking/internal/bookings/repository"
	customersrepo "hotelbooking/internal/customers/repository"
	inventoryrepo "hotelbooking/internal/inventory/repository"
	"hotelbooking/internal/migrations/mongo/validators"
	paymentsrepo "hotelbooking/internal/payments/repository"
	"hotelbooking/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Definition struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	HotelsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	RoomsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "hotel_id", Value: 1}, {Key: "room_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	BookingsIndexes = []mongo.IndexModel{
		// overlap check
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "checkin_date", Value: 1},
			{Key: "checkout_date", Value: 1},
		}},
		// duplicate check
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "hotel_id", Value: 1},
			{Key: "room_id", Value: 1},
			{Key: "checkin_date", Value: 1},
			{Key: "checkout_date", Value: 1},
		}},
		// expiry sweep
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
	}

	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	PaymentsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "provider_reference", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"provider_reference": bson.M{"$type": "string"}}),
		},
	}

	PaymentLogsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "payment_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}
)

// Definitions lists every collection the service owns.
func Definitions() map[string]Definition {
	return map[string]Definition{
		inventoryrepo.HotelsCollection:   {Indexes: HotelsIndexes, Validator: validators.HotelValidator},
		inventoryrepo.RoomsCollection:    {Indexes: RoomsIndexes, Validator: validators.RoomValidator},
		customersrepo.CollectionName:     {Indexes: UsersIndexes, Validator: validators.UserValidator},
		bookingsrepo.CollectionName:      {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		bookingsrepo.LocksCollectionName: {Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
		paymentsrepo.CollectionName:      {Indexes: PaymentsIndexes, Validator: validators.PaymentValidator},
		paymentsrepo.LogsCollectionName:  {Indexes: PaymentLogsIndexes, Validator: validators.PaymentLogValidator},
	}
}

// CollectionNames returns the keys of Definitions in the order they are applied.
func CollectionNames() []string {
	defs := Definitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	defs := Definitions()
	names := CollectionNames()

	for _, name := range names {
		def := defs[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "collections", len(names))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	created, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", created)
	return nil
}
