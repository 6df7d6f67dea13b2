package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/hemma/internal/logger"
	"github.com/julianstephens/hemma/internal/server/config"
	"github.com/julianstephens/hemma/internal/server/metrics"
	"github.com/julianstephens/hemma/internal/server/service"
	"github.com/julianstephens/hemma/internal/server/store"
)

const shutdownTimeout = 10 * time.Second

// OpenCache returns a redis cache when redisURL is set and a no-op cache otherwise.
func OpenCache(ctx context.Context, redisURL string, ttl time.Duration) (store.Cache, error) {
	if redisURL == "" {
		return store.NoopCache{}, nil
	}
	return store.NewRedisCache(ctx, redisURL, ttl)
}

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	gin.SetMode(cfg.GinMode)

	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	}()

	cache, err := OpenCache(ctx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return err
	}
	defer cache.Close()

	m := metrics.New()
	tokens := service.NewTokens(cfg.JWTSecretKey, cfg.JWTIssuer, cfg.JWTExpirationTime)
	svc := service.New(st, cache, tokens, m)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(svc, st, m),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Sync server listening", "addr", srv.Addr, "store", cfg.StoreDriver, "cache", cfg.RedisURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down sync server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Migrate opens the configured store, which brings the schema up to date, and closes it.
func Migrate(ctx context.Context, cfg config.Config) error {
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	return st.Close()
}
