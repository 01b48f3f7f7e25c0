package service

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	BaseURL     string
	DBPath      string
	// DatabaseURL selects the Supabase Postgres store instead of sqlite.
	DatabaseURL string

	// TrustedProxies are the networks allowed to set X-Forwarded-For. With
	// none configured the client IP is the socket peer.
	TrustedProxies []*net.IPNet

	Log struct {
		Level slog.Level
		// Format is "json" or "text".
		Format string
	}

	Stripe struct {
		PublishableKey string
		SecretKey      string
	}

	Supabase struct {
		JWTSecret string
	}

	Checkout struct {
		// TestMode disables the CSRF check. Refused in production.
		TestMode         bool
		InventoryTimeout time.Duration
	}

	RateLimit struct {
		RedisURL string
		Requests int
		Window   time.Duration
	}

	OpenAI struct {
		APIKey  string
		BaseURL string
	}
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8000"),
		DBPath:      getEnv("DB_PATH", "./db/cardify.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}

	var err error

	// Logging
	if config.Log.Level, err = getEnvLevel("LOG_LEVEL", slog.LevelInfo); err != nil {
		return nil, err
	}
	config.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", "json"))

	if config.TrustedProxies, err = getEnvCIDRs("TRUSTED_PROXIES"); err != nil {
		return nil, err
	}

	// Stripe
	config.Stripe.PublishableKey = getEnv("STRIPE_PUBLISHABLE_KEY", "")
	config.Stripe.SecretKey = getEnv("STRIPE_SECRET_KEY", "")

	// Supabase
	config.Supabase.JWTSecret = getEnv("SUPABASE_JWT_SECRET", "")

	// Checkout
	if config.Checkout.TestMode, err = getEnvBool("CHECKOUT_TEST_MODE", false); err != nil {
		return nil, err
	}
	if config.Checkout.InventoryTimeout, err = getEnvDuration("INVENTORY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// Rate limiting
	config.RateLimit.RedisURL = getEnv("REDIS_URL", "")
	if config.RateLimit.Requests, err = getEnvInt("RATE_LIMIT_REQUESTS", 5); err != nil {
		return nil, err
	}
	if config.RateLimit.Window, err = getEnvDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	// OpenAI
	config.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	config.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", "https://api.openai.com")

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	if c.RateLimit.Requests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if !c.IsProduction() {
		return nil
	}
	if c.Checkout.TestMode {
		return fmt.Errorf("CHECKOUT_TEST_MODE cannot be enabled in production")
	}
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getEnvLevel(key string, defaultValue slog.Level) (slog.Level, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return level, nil
}

func getEnvCIDRs(key string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, raw := range strings.Split(getEnv(key, ""), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, raw, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}
