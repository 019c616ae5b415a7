package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/consultation-booking/internal/api"
	"github.com/hackgods/consultation-booking/internal/audit"
	"github.com/hackgods/consultation-booking/internal/auth"
	"github.com/hackgods/consultation-booking/internal/availability"
	"github.com/hackgods/consultation-booking/internal/config"
	"github.com/hackgods/consultation-booking/internal/consultation"
	"github.com/hackgods/consultation-booking/internal/db"
	"github.com/hackgods/consultation-booking/internal/doctor"
	"github.com/hackgods/consultation-booking/internal/logging"
	redisclient "github.com/hackgods/consultation-booking/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("dev", "info").WithError(err).Fatal("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("api-server failed")
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"env":       cfg.Env,
		"http_port": cfg.HTTPPort,
		"version":   version,
	}).Info("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		return fmt.Errorf("postgres connection: %w", err)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.Connect(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.WithError(err).Warn("error closing redis")
		}
	}()
	logger.Info("connected to Redis")

	auditStore := audit.NewPgStore(pgPool)
	writers := []audit.Writer{auditStore}
	if len(cfg.KafkaBrokers) > 0 {
		kw := audit.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		defer func() {
			if err := kw.Close(); err != nil {
				logger.WithError(err).Warn("error closing kafka writer")
			}
		}()
		writers = append(writers, kw)
		logger.WithField("topic", cfg.KafkaAuditTopic).Info("kafka audit writer enabled")
	}

	dispatcher := audit.NewDispatcher(logger, audit.DispatcherConfig{
		QueueSize:    cfg.AuditQueueSize,
		Workers:      cfg.AuditWorkers,
		WriteTimeout: cfg.AuditWriteTimeout,
	}, writers...)

	owners, err := doctor.NewOwnerCache(doctor.NewPgRepository(pgPool), cfg.OwnerCacheSize)
	if err != nil {
		return fmt.Errorf("owner cache: %w", err)
	}

	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	consultations := consultation.NewService(consultation.NewPgRepository(pgPool), locker, dispatcher, logger, cfg)
	slots := availability.NewService(availability.NewPgRepository(pgPool), owners, dispatcher, logger)

	health := api.NewHealthHandler(cfg.Env, version,
		api.HealthCheck{Name: "postgres", Critical: true, Ping: pgPool.Ping},
		api.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Consultations: consultations,
			Availability:  slots,
			AuditLog:      auditStore,
			Audit:         dispatcher,
			Verifier:      auth.NewVerifier(cfg.JWTSecret),
			Health:        health,
			Logger:        logger,
			CORSOrigins:   cfg.CORSAllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown error")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("audit queue not fully drained")
	}

	logger.Info("api-server stopped")
	return runErr
}
