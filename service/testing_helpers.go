package service

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cardify/storefront/internal/checkout"
	"github.com/cardify/storefront/internal/inventory"
	"github.com/cardify/storefront/internal/metrics"
	"github.com/cardify/storefront/internal/ratelimit"
	"github.com/cardify/storefront/internal/stripe"
	"github.com/cardify/storefront/storage"
	"github.com/labstack/echo/v4"
)

// testEnv is a fully wired service backed by an in-memory database and a
// fake Stripe API.
type testEnv struct {
	echo    *echo.Echo
	server  *httptest.Server
	service *Service
	store   *storage.Storage
	stripe  *stripe.FakeAPI
	images  *stubImages
	metrics *metrics.Metrics
}

type stubImages struct {
	url string
	err error
}

func (s *stubImages) Generate(_ context.Context, _ string) (string, error) {
	return s.url, s.err
}

func testConfig() *Config {
	cfg := &Config{
		Environment: "test",
		Port:        "8080",
		BaseURL:     "http://localhost:8080",
	}
	cfg.Supabase.JWTSecret = "service-test-secret-service-test-secret"
	cfg.Checkout.InventoryTimeout = 2 * time.Second
	cfg.RateLimit.Requests = 3
	cfg.RateLimit.Window = time.Minute
	return cfg
}

// setupTestEcho creates an Echo instance with routes registered. The
// listener is reserved up front so BaseURL is the address serve will use.
func setupTestEcho(t *testing.T, cfg *Config) *testEnv {
	t.Helper()

	srv := httptest.NewUnstartedServer(nil)
	t.Cleanup(srv.Close)
	cfg.BaseURL = "http://" + srv.Listener.Addr().String()

	store, cleanup, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(cleanup)

	fakeStripe := stripe.NewFakeAPI()
	t.Cleanup(fakeStripe.Close)

	m := metrics.New()
	images := &stubImages{url: "https://images.example.com/generated.png"}

	composer := checkout.NewComposer(
		fakeStripe.Service(),
		inventory.NewClient(cfg.Checkout.InventoryTimeout),
		store,
	)

	svc := New(cfg, Deps{
		Checkout:  composer,
		Inventory: store,
		Images:    images,
		Limiter:   ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Metrics:   m,
		Store:     store,
	})

	e := echo.New()
	e.IPExtractor = cfg.IPExtractor()
	e.Use(RequestLogger(m))
	e.Use(SecurityHeaders())
	svc.RegisterRoutes(e)
	srv.Config.Handler = e

	return &testEnv{
		echo:    e,
		server:  srv,
		service: svc,
		store:   store,
		stripe:  fakeStripe,
		images:  images,
		metrics: m,
	}
}

// serve starts the listener behind BaseURL. Checkout fetches /api/inventory
// from there, so end-to-end tests need it running.
func (env *testEnv) serve(t *testing.T) *httptest.Server {
	t.Helper()
	env.server.Start()
	return env.server
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func sqlNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
