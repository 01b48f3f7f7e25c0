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

	"github.com/cardify/storefront/internal/checkout"
	"github.com/cardify/storefront/internal/imagegen"
	"github.com/cardify/storefront/internal/inventory"
	"github.com/cardify/storefront/internal/metrics"
	"github.com/cardify/storefront/internal/ratelimit"
	"github.com/cardify/storefront/internal/stripe"
	"github.com/cardify/storefront/internal/supabase"
	"github.com/cardify/storefront/service"
	"github.com/cardify/storefront/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// store is what both storage backends provide.
type store interface {
	checkout.ListingStore
	inventory.Source
	service.Pinger
}

func main() {
	config, err := service.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stderr, config.Log.Level, config.Log.Format))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openStore(ctx, config)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	limiter, err := newLimiter(ctx, config)
	if err != nil {
		slog.Error("failed to initialize rate limiter", "error", err)
		os.Exit(1)
	}

	if config.Stripe.SecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY not set, checkout will fail")
	}

	m := metrics.New()
	composer := checkout.NewComposer(
		stripe.NewStripeService(config.Stripe.SecretKey),
		inventory.NewClient(config.Checkout.InventoryTimeout),
		db,
	)

	svc := service.New(config, service.Deps{
		Checkout:  composer,
		Inventory: db,
		Images:    imagegen.NewGenerator(config.OpenAI.APIKey, config.OpenAI.BaseURL),
		Limiter:   limiter,
		Metrics:   m,
		Store:     db,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = config.IPExtractor()

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(service.RequestLogger(m))
	e.Use(service.SecurityHeaders())

	svc.RegisterRoutes(e)

	addr := fmt.Sprintf(":%s", config.Port)
	slog.Info("cardify storefront starting",
		"url", config.BaseURL,
		"port", config.Port,
		"environment", config.Environment,
		"test_mode", config.Checkout.TestMode,
	)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func openStore(ctx context.Context, config *service.Config) (store, func(), error) {
	if config.DatabaseURL != "" {
		pg, err := supabase.Connect(ctx, config.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using supabase postgres store")
		return pg, pg.Close, nil
	}

	db, err := storage.New(config.DBPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using sqlite store", "database", config.DBPath)
	return db, func() { _ = db.Close() }, nil
}

func newLimiter(ctx context.Context, config *service.Config) (ratelimit.Limiter, error) {
	limit, window := config.RateLimit.Requests, config.RateLimit.Window

	if config.RateLimit.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(config.RateLimit.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		slog.Info("using redis rate limiter", "limit", limit, "window", window)
		return ratelimit.NewRedisLimiter(client, "ratelimit:generate-image", limit, window), nil
	}

	slog.Warn("REDIS_URL not set, rate limits are per instance", "limit", limit, "window", window)
	mem := ratelimit.NewMemoryLimiter(limit, window)
	go mem.Run(ctx, 5*time.Minute)
	return mem, nil
}
