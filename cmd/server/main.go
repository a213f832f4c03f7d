package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/forgo/micropost/internal/config"
	"github.com/forgo/micropost/internal/database"
	"github.com/forgo/micropost/internal/handler"
	"github.com/forgo/micropost/internal/metrics"
	"github.com/forgo/micropost/internal/middleware"
	"github.com/forgo/micropost/internal/repository"
	"github.com/forgo/micropost/internal/service"
	"github.com/forgo/micropost/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize the post store
	postRepo, pinger, closeDB, err := openPostStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database",
			slog.String("driver", cfg.Database.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer closeDB()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	postMetrics, err := metrics.NewPostMetrics(registry)
	if err != nil {
		slog.Error("failed to register metrics", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize services
	postService := service.NewPostService(service.PostServiceConfig{
		Repo:     postRepo,
		Recorder: postMetrics,
	})

	// Initialize middleware state
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL: cfg.Idempotency.TTL,
	})
	defer idempotencyStore.Stop()

	router := newRouter(routeDeps{
		Posts:          handler.NewPostHandler(postService),
		DB:             pinger,
		Metrics:        metrics.Handler(registry),
		Tokens:         jwtService,
		RateLimiter:    rateLimiter,
		Idempotency:    idempotencyStore,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("driver", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("server error", slog.String("error", err.Error()))
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// openPostStore connects to the configured database and returns the post
// repository on top of it
func openPostStore(ctx context.Context, cfg config.DatabaseConfig) (service.PostRepository, handler.Pinger, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
			DSN:      cfg.PostgresDSN,
			MaxConns: int32(cfg.PostgresMaxConns),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("connected to postgres")
		return repository.NewPostgresPostRepository(pool), pool, pool.Close, nil

	default:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Host,
			Port:      cfg.Port,
			User:      cfg.User,
			Password:  cfg.Password,
			Namespace: cfg.Namespace,
			Database:  cfg.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, nil, nil, err
		}
		slog.Info("connected to surrealdb",
			slog.String("host", cfg.Host),
			slog.String("database", cfg.Database),
		)
		return repository.NewPostRepository(db), db, func() { _ = db.Close() }, nil
	}
}
