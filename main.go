package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookmark-notes/backend/internal/config"
	"github.com/bookmark-notes/backend/internal/db"
	"github.com/bookmark-notes/backend/internal/handler"
	"github.com/bookmark-notes/backend/internal/logging"
	"github.com/bookmark-notes/backend/internal/password"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/bookmark-notes/backend/internal/telemetry"
	"github.com/bookmark-notes/backend/internal/token"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// store is what both storage drivers provide to the services.
type store interface {
	service.Credentials
	service.UserRepository
	service.BookmarkRepository
	service.NoteRepository
}

// @title Bookmark Notes API
// @version 1.0
// @description Bookmarks and notes behind access and rotating refresh tokens.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	hasher := password.NewHasher(password.Params{
		Memory:      cfg.Hasher.MemoryKiB,
		Iterations:  cfg.Hasher.Iterations,
		Parallelism: cfg.Hasher.Parallelism,
	})

	authService, err := service.NewAuthService(repo, hasher, issuer, service.AuthOptions{
		SerializeSessions: cfg.Auth.SerializeSessions,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Users:          service.NewUserService(repo),
		Bookmarks:      service.NewBookmarkService(repo),
		Notes:          service.NewNoteService(repo),
		Tokens:         issuer,
		Logger:         logger,
		AllowedOrigins: cfg.HTTP.Origins(),
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.HTTP.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return db.NewMemory(), func() {}, nil
	}

	dsn, err := cfg.Postgres.URL()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPostgresPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	pg := db.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, pg.Close, nil
}
