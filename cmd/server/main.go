package main

import (
	"context"
	"log"

	"factory-backend/internal/auth"
	"factory-backend/internal/config"
	"factory-backend/internal/database"
	"factory-backend/internal/inventory"
	"factory-backend/internal/logging"
	"factory-backend/internal/server"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := database.Init(cfg, logger); err != nil {
		logger.WithError(err).Fatal("database init failed")
	}

	svc := inventory.NewService(database.DB, logger)
	if cfg.RedisAddress != "" {
		locker, err := database.NewRedisLocker(context.Background(), cfg.RedisAddress, cfg.BatchLockTTL)
		if err != nil {
			logger.WithError(err).Fatal("redis connect failed")
		}
		defer locker.Close()
		svc.SetSequenceLocker(locker)
		logger.WithField("addr", cfg.RedisAddress).Info("batch number lock uses redis")
	}

	app := server.New(server.Deps{
		Config:    cfg,
		DB:        database.DB,
		Log:       logger,
		Inventory: svc,
		Policy:    auth.DefaultPolicy(),
	})

	logger.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
