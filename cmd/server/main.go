// Package main runs the fitness challenge API server.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/fitchallenge/backend/internal/app"
	"github.com/fitchallenge/backend/internal/app/httpapi"
	"github.com/fitchallenge/backend/internal/app/storage/postgres"
	redisstore "github.com/fitchallenge/backend/internal/app/storage/redis"
	"github.com/fitchallenge/backend/internal/config"
	"github.com/fitchallenge/backend/internal/platform/migrations"
	"github.com/fitchallenge/backend/pkg/logger"
)

func main() {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("server").WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		WithField("component", "server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stores app.Stores

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			log.WithError(err).Error("ping database")
			os.Exit(1)
		}
		if err := migrations.Apply(ctx, db); err != nil {
			log.WithError(err).Error("apply migrations")
			os.Exit(1)
		}

		pg := postgres.New(db)
		stores = app.Stores{
			Users:          pg,
			Sessions:       pg,
			Gyms:           pg,
			Exercises:      pg,
			Badges:         pg,
			Challenges:     pg,
			Participations: pg,
			Invitations:    pg,
		}
		log.Info("using postgres stores")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Error("ping redis")
			os.Exit(1)
		}
		stores.Sessions = redisstore.NewSessionStore(client)
		log.Info("using redis session store")
	}

	application, err := app.New(stores, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}
	application.Auth.WithSessionTTL(cfg.SessionTTL)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := application.Auth.EnsureSuperAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.WithError(err).Error("ensure super admin")
			os.Exit(1)
		}
	}

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	handler := httpapi.NewHandler(application, log, httpapi.Options{
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr()).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}
	log.Info("server stopped")
}
