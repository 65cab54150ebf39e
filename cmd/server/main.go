package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vidlist-backend/internal/config"
	"vidlist-backend/internal/database"
	"vidlist-backend/internal/handlers"
	"vidlist-backend/internal/logging"
	"vidlist-backend/internal/metrics"
	"vidlist-backend/internal/middleware"
	"vidlist-backend/internal/repository"
	"vidlist-backend/internal/router"
	"vidlist-backend/internal/services"
	"vidlist-backend/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Playlist backend with YouTube import",
	Long: `Serves the playlist HTTP API. Users can create playlists directly or
import them, with all their videos, from a YouTube playlist URL.`,
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations and start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Env)
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection failed: %w", err)
	}
	defer pool.Close()

	return database.RunMigrations(cmd.Context(), pool, cfg.MigrationsDir, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting playlist backend", zap.String("env", cfg.Env))

	// ──── Step 1: PostgreSQL ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection failed: %w", err)
	}
	defer pool.Close()
	logger.Info("PostgreSQL connected")

	// ──── Step 2: Redis ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	// ──── Step 3: Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logger.Info("database migrations applied")

	// ──── Step 4: Metrics and blob storage ────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("blob storage ready", zap.String("type", cfg.StorageType))

	// ──── Step 5: YouTube catalog ────
	catalog, err := services.NewYouTubeCatalog(ctx, cfg.YouTubeAPIKey, services.CatalogOptions{
		Endpoint:   cfg.CatalogEndpoint,
		MaxRetries: cfg.CatalogMaxRetries,
		Metrics:    m,
	})
	if err != nil {
		return fmt.Errorf("YouTube client initialization failed: %w", err)
	}
	logger.Info("YouTube Data API client initialized")

	// ──── Repositories, services, handlers ────
	userRepo := repository.NewUserRepo(pool)
	playlistRepo := repository.NewPlaylistRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry)
	tokenStore := services.NewRedisTokenStore(redisClient)

	authService := services.NewAuthService(userRepo, tokenStore, jwtAuth, blobs, cfg.RefreshTokenExpiry)
	userService := services.NewUserService(userRepo, blobs)
	playlistService := services.NewPlaylistService(playlistRepo, videoRepo, blobs)
	importer := services.NewPlaylistImporter(catalog, playlistRepo, videoRepo, services.ImporterOptions{
		Timeout:     cfg.CatalogTimeout,
		Concurrency: cfg.CatalogConcurrency,
		Metrics:     m,
	})

	authHandler := handlers.NewAuthHandler(authService, cfg.RefreshTokenExpiry)
	userHandler := handlers.NewUserHandler(userService)
	playlistHandler := handlers.NewPlaylistHandler(playlistService, importer)

	var static router.Static
	if cfg.StorageType == "local" {
		static = router.Static{URLPrefix: cfg.StoragePublicURL, Dir: cfg.StoragePath}
	}

	authLimiter := middleware.NewRateLimiter(cfg.AuthRequestsPerMinute, time.Minute, cfg.AuthBurst)

	// ──── Step 6: HTTP server ────
	r := router.New(
		logger,
		jwtAuth,
		authLimiter,
		authHandler,
		userHandler,
		playlistHandler,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		static,
		cfg.CORSOrigins,
		cfg.TrustProxy,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.CatalogTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
