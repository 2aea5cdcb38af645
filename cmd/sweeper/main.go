package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"hotelbooking/internal/bootstrap"
	"hotelbooking/internal/sweeper"
	"hotelbooking/pkg/config"
	kafka_config "hotelbooking/pkg/kafka/config"
	"hotelbooking/pkg/telemetry"
)

const JobName = "sweeper"

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telCfg, err := telemetry.LoadConfig()
	if err != nil {
		cfg.Log.Fatal("Invalid telemetry configuration", "error", err)
	}
	tel, err := telemetry.Setup(ctx, telCfg, JobName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize telemetry", "error", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			cfg.Log.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	ev, err := bootstrap.OpenEvents(cfg, kafkaCfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer ev.Close()

	storage := bootstrap.OpenStorage(cfg)
	// expiry never reaches the payment gateway
	service := bootstrap.NewOrchestrator(cfg, storage, nil, ev.Publisher)

	sw := sweeper.New(storage.Bookings, service, nil, sweeper.Config{
		TTL:       cfg.PendingPaymentTTL,
		Interval:  cfg.SweepInterval,
		BatchSize: cfg.SweepBatchSize,
	}, cfg.Log)

	if *once {
		report, err := sw.SweepOnce(ctx)
		if err != nil {
			cfg.Log.Fatal("Sweep failed", "error", err)
		}
		cfg.Log.Info("Sweep finished",
			"scanned", report.Scanned,
			"expired", report.Expired,
			"errors", len(report.Errors),
		)
		return
	}

	cfg.Log.Info("Starting expiry sweeper", "interval", cfg.SweepInterval, "ttl", cfg.PendingPaymentTTL)
	sw.Run(ctx)
	cfg.Log.Info("Sweeper stopped")
}
