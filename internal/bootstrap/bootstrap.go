// Package bootstrap assembles the storage, event and orchestrator graph
// shared by the service binaries.
package bootstrap

import (
	"context"
	"fmt"

	bookingsrepo "hotelbooking/internal/bookings/repository"
	customersrepo "hotelbooking/internal/customers/repository"
	"hotelbooking/internal/events"
	"hotelbooking/internal/health"
	inventoryrepo "hotelbooking/internal/inventory/repository"
	"hotelbooking/internal/memstore"
	"hotelbooking/internal/orchestrator"
	"hotelbooking/internal/payments/gateway"
	paymentsrepo "hotelbooking/internal/payments/repository"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/kafka"
	kafka_config "hotelbooking/pkg/kafka/config"
	kafkamiddleware "hotelbooking/pkg/kafka/middleware"

	"go.opentelemetry.io/otel"
)

type Storage struct {
	Tx           mongotx.TransactionManager
	Hotels       inventoryrepo.HotelRepository
	Rooms        inventoryrepo.RoomRepository
	Customers    customersrepo.CustomerRepository
	Bookings     bookingsrepo.BookingRepository
	BookingLocks bookingsrepo.BookingLockRepository
	Payments     paymentsrepo.PaymentRepository
	PaymentLogs  paymentsrepo.PaymentLogRepository
	DB           health.Pinger
}

// OpenStorage connects the repositories selected by cfg.StorageDriver.
func OpenStorage(cfg *config.Config) *Storage {
	if cfg.UsesMemoryStorage() {
		store := memstore.New()
		cfg.Log.Warn("Using in-memory storage, data is lost on restart")
		return &Storage{
			Tx:           store,
			Hotels:       store.Hotels(),
			Rooms:        store.Rooms(),
			Customers:    store.Customers(),
			Bookings:     store.Bookings(),
			BookingLocks: store.BookingLocks(),
			Payments:     store.Payments(),
			PaymentLogs:  store.PaymentLogs(),
			DB:           store,
		}
	}

	cfg.SetMongo()
	mongoClient := cfg.Client.Mongo
	return &Storage{
		Tx:           mongotx.NewTransactionManager(mongoClient, cfg.TransactionTimeout),
		Hotels:       inventoryrepo.NewMongoHotelRepository(cfg),
		Rooms:        inventoryrepo.NewMongoRoomRepository(cfg),
		Customers:    customersrepo.NewMongoCustomerRepository(cfg),
		Bookings:     bookingsrepo.NewMongoBookingRepository(cfg),
		BookingLocks: bookingsrepo.NewBookingLockRepository(cfg),
		Payments:     paymentsrepo.NewMongoPaymentRepository(cfg),
		PaymentLogs:  paymentsrepo.NewMongoPaymentLogRepository(cfg),
		DB: health.PingFunc(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		}),
	}
}

// Events is the domain event publisher. Close flushes the producer.
type Events struct {
	Publisher events.Publisher
	producer  *kafka.Producer
}

func (e *Events) Close() error {
	if e.producer == nil {
		return nil
	}
	return e.producer.Close()
}

// OpenEvents publishes to Kafka when it is enabled and drops events otherwise.
func OpenEvents(cfg *config.Config, kcfg *kafka_config.Config) (*Events, error) {
	if !kcfg.Enabled {
		cfg.Log.Info("Kafka disabled, domain events are not published")
		return &Events{Publisher: events.NopPublisher{}}, nil
	}

	producer, err := kafka.NewProducer(kcfg, kcfg.EventsTopic, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create events producer: %w", err)
	}
	if kcfg.EnableMiddleware {
		metrics, err := kafkamiddleware.NewMetrics(otel.Meter("hotelbooking/kafka"))
		if err != nil {
			_ = producer.Close()
			return nil, fmt.Errorf("create kafka metrics: %w", err)
		}
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.Producer())
	}

	cfg.Log.Info("Publishing domain events", "topic", kcfg.EventsTopic, "brokers", kcfg.Brokers)
	return &Events{
		Publisher: events.NewKafkaPublisher(producer, cfg.Log),
		producer:  producer,
	}, nil
}

// NewOrchestrator wires the booking and payment service over st.
func NewOrchestrator(cfg *config.Config, st *Storage, gw gateway.Gateway, publisher events.Publisher) *orchestrator.Service {
	return orchestrator.New(orchestrator.Dependencies{
		Tx:           st.Tx,
		Hotels:       st.Hotels,
		Rooms:        st.Rooms,
		Customers:    st.Customers,
		Bookings:     st.Bookings,
		BookingLocks: st.BookingLocks,
		Payments:     st.Payments,
		PaymentLogs:  st.PaymentLogs,
		Gateway:      gw,
		Events:       publisher,
		LockTTL:      cfg.BookingLockTTL,
		Log:          cfg.Log,
	})
}
