package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cardify/storefront/internal/auth"
	"github.com/cardify/storefront/internal/handlers"
	"github.com/cardify/storefront/internal/inventory"
	"github.com/cardify/storefront/internal/metrics"
	"github.com/cardify/storefront/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators built in main.
type Deps struct {
	Checkout  handlers.SessionCreator
	Inventory inventory.Source
	Images    handlers.ImageGenerator
	Limiter   ratelimit.Limiter
	Metrics   *metrics.Metrics
	Store     Pinger
}

type Service struct {
	config   *Config
	store    Pinger
	metrics  *metrics.Metrics
	verifier *auth.Verifier

	checkoutHandler  *handlers.CheckoutHandler
	inventoryHandler *handlers.InventoryHandler
	imageHandler     *handlers.ImageHandler
}

func New(config *Config, deps Deps) *Service {
	verifier := auth.NewVerifier(config.Supabase.JWTSecret)
	if config.Supabase.JWTSecret == "" {
		slog.Warn("SUPABASE_JWT_SECRET not set, every access token will be rejected")
	}
	if config.Checkout.TestMode {
		slog.Warn("CHECKOUT_TEST_MODE enabled, CSRF checks are skipped")
	}

	return &Service{
		config:           config,
		store:            deps.Store,
		metrics:          deps.Metrics,
		verifier:         verifier,
		checkoutHandler:  handlers.NewCheckoutHandler(deps.Checkout, verifier, deps.Metrics, config.BaseURL),
		inventoryHandler: handlers.NewInventoryHandler(deps.Inventory),
		imageHandler:     handlers.NewImageHandler(deps.Images, deps.Limiter, deps.Metrics),
	}
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	secureCookie := strings.HasPrefix(s.config.BaseURL, "https://")
	csrf := handlers.CSRF(handlers.CSRFOptions{
		Skip:         s.config.Checkout.TestMode,
		SecureCookie: secureCookie,
	})

	api := e.Group("/api")

	// Token issuance is never skipped so clients behave the same in test mode.
	api.GET("/csrf-token", handlers.CSRFToken, handlers.CSRF(handlers.CSRFOptions{SecureCookie: secureCookie}))

	api.POST("/create-checkout-session", s.checkoutHandler.CreateCheckoutSession, csrf)
	api.Match(
		[]string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch},
		"/create-checkout-session",
		s.checkoutHandler.MethodNotAllowed,
	)

	api.GET("/inventory", s.inventoryHandler.GetInventory)

	api.POST("/generate-image", s.imageHandler.GenerateImage, auth.SupabaseAuthMiddleware(s.verifier))
}

func (s *Service) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, database := http.StatusOK, "connected"
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			status, database = http.StatusServiceUnavailable, "unavailable"
		}
	}

	health := "healthy"
	if status != http.StatusOK {
		health = "unhealthy"
	}
	return c.JSON(status, map[string]any{
		"status":      health,
		"environment": s.config.Environment,
		"database":    database,
	})
}
