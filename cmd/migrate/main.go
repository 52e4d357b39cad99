package main

import (
	"context"
	"flag"
	"log"

	"guardians/internal/config"
	"guardians/internal/database"
	"guardians/internal/logger"
	"guardians/internal/repository/mongostore"

	"go.uber.org/zap"
)

// migrate brings the configured backend's schema up to date: SQL migrations for
// oracle, postgres and sqlite, index creation for mongo.
func main() {
	backend := flag.String("backend", "", "override storage.backend (sql or mongo)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	if cfg.Storage.Backend == config.StorageMongo {
		ctx := context.Background()
		client, db, err := mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			l.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer mongostore.Disconnect(client)

		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			l.Fatal("Failed to create indexes", zap.Error(err))
		}
		l.Info("MongoDB indexes are up to date", zap.String("database", cfg.Mongo.Database))
		return
	}

	db, err := database.NewSQLXDB(cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB, cfg.DB.Driver); err != nil {
		l.Fatal("Failed to run migrations", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	l.Info("Migrations applied", zap.String("driver", cfg.DB.Driver))
}
