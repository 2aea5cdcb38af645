package main

import (
	"context"

	bookinghandler "hotelbooking/internal/bookings/handler"
	"hotelbooking/internal/bootstrap"
	"hotelbooking/internal/health"
	"hotelbooking/internal/orchestrator"
	"hotelbooking/internal/payments/consumer"
	"hotelbooking/internal/payments/gateway"
	paymenthandler "hotelbooking/internal/payments/handler"
	"hotelbooking/internal/sweeper"
	"hotelbooking/pkg/app"
	"hotelbooking/pkg/auth"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/kafka"
	kafka_config "hotelbooking/pkg/kafka/config"
	kafkamiddleware "hotelbooking/pkg/kafka/middleware"
	"hotelbooking/pkg/sealer"
	"hotelbooking/pkg/telemetry"

	"go.opentelemetry.io/otel"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Bookings service")

	serverApp := app.NewApplication()

	tel := initTelemetry(cfg)
	serverApp.OnShutdown(tel.Shutdown)

	storage := bootstrap.OpenStorage(cfg)
	serverApp.OnShutdown(func(ctx context.Context) error {
		cfg.Client.GracefulShutdown(ctx, cfg.Log)
		return nil
	})

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	ev, err := bootstrap.OpenEvents(cfg, kafkaCfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	serverApp.OnShutdown(func(context.Context) error { return ev.Close() })

	gw := initGateway(cfg)
	service := bootstrap.NewOrchestrator(cfg, storage, gw, ev.Publisher)
	cfg.Log.Info("Booking service initialized", "storage", cfg.StorageDriver, "database", cfg.MongoDatabaseName)

	serverApp.SetApp(cfg,
		health.NewHandler(storage.DB, cfg.StorageDriver, cfg.Log),
		bookinghandler.NewBookingHandler(service, cfg.Log),
		paymenthandler.NewPaymentHandler(service, paymentOptions(cfg, gw), cfg.Log),
	)

	if cfg.SweeperEnabled {
		sw := sweeper.New(storage.Bookings, service, nil, sweeper.Config{
			TTL:       cfg.PendingPaymentTTL,
			Interval:  cfg.SweepInterval,
			BatchSize: cfg.SweepBatchSize,
		}, cfg.Log)
		serverApp.AddWorker("sweeper", func(ctx context.Context) error {
			sw.Run(ctx)
			return nil
		})
	}

	if kafkaCfg.Enabled {
		callbacks := initCallbackConsumer(cfg, kafkaCfg, service)
		serverApp.AddWorker("payment-callbacks", callbacks.Start)
		serverApp.OnShutdown(func(context.Context) error { return callbacks.Close() })
	}

	serverApp.Run()
}

func initTelemetry(cfg *config.Config) *telemetry.Provider {
	telCfg, err := telemetry.LoadConfig()
	if err != nil {
		cfg.Log.Fatal("Invalid telemetry configuration", "error", err)
	}
	provider, err := telemetry.Setup(context.Background(), telCfg, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize telemetry", "error", err)
	}
	return provider
}

func initGateway(cfg *config.Config) gateway.Gateway {
	gwCfg, err := gateway.LoadConfig()
	if err != nil {
		cfg.Log.Fatal("Invalid payment gateway configuration", "error", err)
	}
	tokens, err := sealer.New(cfg.CheckoutTokenKey)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize checkout tokens", "error", err)
	}
	if cfg.CheckoutTokenKey == "" && gwCfg.Mode == gateway.ModeMock {
		cfg.Log.Warn("CHECKOUT_TOKEN_KEY not set, checkout links do not survive a restart")
	}
	cfg.Log.Info("Payment gateway configured", "mode", gwCfg.Mode)
	return gateway.New(gwCfg, cfg.CheckoutBaseURL, tokens, cfg.Log)
}

func paymentOptions(cfg *config.Config, gw gateway.Gateway) paymenthandler.Options {
	opts := paymenthandler.Options{CallbackSecret: cfg.CallbackSecret}
	if cfg.AdminJWTSecret != "" {
		opts.Verifier = auth.NewVerifier(cfg.AdminJWTSecret)
	} else {
		cfg.Log.Warn("ADMIN_JWT_SECRET not set, payment admin endpoints are disabled")
	}
	if cfg.CallbackSecret == "" {
		cfg.Log.Warn("PAYMENT_CALLBACK_SECRET not set, callbacks are accepted unsigned")
	}
	if mock, ok := gw.(*gateway.MockGateway); ok {
		opts.Checkout = mock
	}
	return opts
}

func initCallbackConsumer(cfg *config.Config, kafkaCfg *kafka_config.Config, service *orchestrator.Service) *kafka.Consumer {
	handler := consumer.NewCallbackHandler(service, cfg.CallbackSecret, cfg.Log)
	c, err := kafka.NewConsumer(kafkaCfg, kafkaCfg.CallbacksTopic, kafkaCfg.CallbacksGroupID, kafkaCfg.CallbacksDLQTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create payment callback consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		metrics, err := kafkamiddleware.NewMetrics(otel.Meter("hotelbooking/kafka"))
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka metrics", "error", err)
		}
		c.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		c.Use(metrics.Consumer())
	}
	return c
}
