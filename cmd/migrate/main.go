package main

import (
	"context"
	"time"

	"github.com/hackgods/consultation-booking/internal/config"
	"github.com/hackgods/consultation-booking/internal/db"
	"github.com/hackgods/consultation-booking/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("dev", "info").WithError(err).Fatal("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.WithError(err).Fatal("migrate")
	}

	logger.Info("schema applied")
}
