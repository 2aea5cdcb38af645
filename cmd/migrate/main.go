package main

import (
	"context"
	"flag"
	"time"

	mongoMigration "hotelbooking/internal/migrations/mongo"
	"hotelbooking/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	dryRun := flag.Bool("dry-run", false, "list the collections and indexes without connecting")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall migration deadline")
	flag.Parse()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	if *dryRun {
		defs := mongoMigration.Definitions()
		for _, name := range mongoMigration.CollectionNames() {
			cfg.Log.Info("Would migrate collection",
				"collection", name,
				"indexes", len(defs[name].Indexes),
				"has_validator", defs[name].Validator != nil,
			)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName, "timeout", *timeout)

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
