package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremyjsx/journal/internal/auth"
	"github.com/jeremyjsx/journal/internal/config"
	"github.com/jeremyjsx/journal/internal/db"
	"github.com/jeremyjsx/journal/internal/events"
	"github.com/jeremyjsx/journal/internal/handlers"
	"github.com/jeremyjsx/journal/internal/middleware"
	"github.com/jeremyjsx/journal/internal/posts"
	"github.com/jeremyjsx/journal/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	var store storage.Storage
	if cfg.S3Bucket != "" {
		client, err := storage.NewS3Client(ctx, cfg.AWSRegion, cfg.S3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 client", "error", err)
			os.Exit(1)
		}
		store = storage.NewS3Storage(client, cfg.S3Bucket)
	} else {
		logger.Warn("S3_BUCKET not set, cover images stay inline")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
	}

	svc := posts.NewService(posts.Deps{
		Repo:          posts.NewSQLRepository(database),
		Storage:       store,
		Publisher:     publisher,
		Logger:        logger,
		Bucket:        cfg.S3Bucket,
		Region:        cfg.AWSRegion,
		PublicBaseURL: cfg.S3PublicURL,
	})

	provider, err := auth.NewLocalProvider(database, auth.LocalConfig{
		Secret:      []byte(cfg.JWTSecret),
		TTL:         cfg.TokenTTL,
		AdminEmails: cfg.AdminEmails,
	})
	if err != nil {
		logger.Error("failed to create auth provider", "error", err)
		os.Exit(1)
	}

	limiter := middleware.NewRateLimiter(5, time.Minute)
	defer limiter.Close()

	router := handlers.NewRouter(handlers.RouterDeps{
		Posts:  svc,
		Auth:   provider,
		Logger: logger,
		Health: &handlers.HealthDeps{
			DB:          database.DB,
			Storage:     store,
			RabbitMQURL: cfg.RabbitMQURL,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SignInLimiter:      limiter,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("journal api started", "port", cfg.Port, "dialect", database.Dialect)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
