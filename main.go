package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"railway-reservation/catalog"
	"railway-reservation/config"
	"railway-reservation/database"
	"railway-reservation/handlers"
	"railway-reservation/inventory"
	"railway-reservation/logger"
	"railway-reservation/middleware"
	"railway-reservation/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logr, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	for _, w := range cfg.Warnings {
		logr.Warn("Configuration", zap.String("warning", w))
	}

	logr.Info("Starting Railway Reservation System",
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("catalog_backend", cfg.CatalogBackend),
		zap.Int("seat_capacity", cfg.SeatCapacity),
	)

	if err := run(cfg, logr); err != nil {
		logr.Fatal("Server stopped with error", zap.Error(err))
	}
	logr.Info("Server exited")
}

// storage holds the open connections and the components built on them
type storage struct {
	db      *sql.DB
	redis   *redis.Client
	catalog catalog.Catalog
	backend inventory.Backend
}

func (s *storage) ping(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (s *storage) close(logr *zap.Logger) {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logr.Warn("Error closing redis", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logr.Warn("Error closing database", zap.Error(err))
		}
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*storage, error) {
	s := &storage{}

	if cfg.NeedsPostgres() {
		db, err := database.Connect(ctx, cfg, logr)
		if err != nil {
			return nil, err
		}
		s.db = db

		if err := database.RunMigrations(ctx, db); err != nil {
			s.close(logr)
			return nil, err
		}
	}

	if cfg.CatalogBackend == config.BackendPostgres {
		s.catalog = catalog.NewPostgresCatalog(s.db)
	} else {
		s.catalog = catalog.NewMemoryCatalog()
	}

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		s.backend = inventory.NewPostgresBackend(s.db)
	case config.BackendRedis:
		client, err := database.ConnectRedis(ctx, cfg, logr)
		if err != nil {
			s.close(logr)
			return nil, err
		}
		s.redis = client
		s.backend = inventory.NewRedisBackend(client, cfg.RedisPrefix)
	default:
		s.backend = inventory.NewMemoryBackend()
	}

	return s, nil
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer store.close(logr)

	registry := inventory.NewRegistry(store.backend,
		inventory.WithCapacity(cfg.SeatCapacity),
		inventory.WithLogger(logr),
	)
	reservations := services.NewReservationService(store.catalog, registry, logr)
	trains := services.NewTrainService(store.catalog, reservations, logr)

	h := handlers.New(trains, reservations, store.ping, logr)
	router := setupRouter(h, logr)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("Server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func setupRouter(h *handlers.Handler, logr *zap.Logger) *gin.Engine {
	// Set Gin to release mode in production
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(logr), middleware.Recovery(logr))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	h.Register(router)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "code": "ROUTE_NOT_FOUND"})
	})

	return router
}
