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

	"github.com/redis/go-redis/v9"

	"github.com/bundlebay/giftcore/internal/api"
	"github.com/bundlebay/giftcore/internal/infra/catalogclient"
	"github.com/bundlebay/giftcore/internal/infra/logging"
	"github.com/bundlebay/giftcore/internal/infra/pgutils"
	"github.com/bundlebay/giftcore/internal/infra/ratelimit"
	"github.com/bundlebay/giftcore/internal/services/exchange"
	"github.com/bundlebay/giftcore/internal/services/gifting"
	"github.com/bundlebay/giftcore/internal/services/upgrade"
	"github.com/bundlebay/giftcore/pkg/envconf"
	"github.com/bundlebay/giftcore/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, slog.String("service", "giftcore-api"))

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return dbConns.Close()
	})

	limiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}

	// --- Services ---
	giftingSvc := gifting.New(dbConns, limiter)
	exchangeSvc := exchange.New(dbConns)
	upgradeSvc := upgrade.New(dbConns, catalogclient.New(cfg.CatalogURL))

	// --- HTTP server ---
	handler := api.NewHandler(giftingSvc, exchangeSvc, upgradeSvc)
	router := api.NewRouter(handler, api.RouterConfig{
		AdminToken:    cfg.AdminToken,
		ThrottleRPS:   cfg.ThrottleRPS,
		ThrottleBurst: cfg.ThrottleBurst,
	})
	srv := api.NewServer(cfg.Port, router)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

// newLimiter picks the gift-acceptance attempt counter backend. With a Redis
// address configured the counter is shared across instances; without one it
// stays process-local, which is only correct for a single-instance deploy.
func newLimiter(ctx context.Context, cfg *apiConfig) (ratelimit.Limiter, error) {
	rlCfg := ratelimit.Config{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
	}

	if cfg.RateLimit.RedisAddr == "" {
		mem := ratelimit.NewMemory(rlCfg)
		mem.StartJanitor(ctx)

		slog.Info("gift rate limiter: in-memory backend")

		return mem, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return rdb.Close()
	})

	slog.Info("gift rate limiter: redis backend", "addr", cfg.RateLimit.RedisAddr)

	return ratelimit.NewRedis(rdb, rlCfg), nil
}
