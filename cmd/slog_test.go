package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelWarn, "json")

	logger.Info("inventory loaded")
	assert.Empty(t, buf.String())

	logger.Warn("rate limiter unavailable", "error", errors.New("redis down"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "rate limiter unavailable", entry["msg"])
	assert.Equal(t, "redis down", entry["error"])
	assert.NotContains(t, entry, slog.SourceKey)
}

func TestNewLogger_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelDebug, "json")

	logger.Debug("skipping unrecognised cart item")

	var entry struct {
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.True(t, strings.HasSuffix(entry.Source.File, "slog_test.go"), entry.Source.File)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelInfo, "text")

	logger.Debug("hidden")
	logger.Info("cardify storefront starting", "port", "8000")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "cardify storefront starting")
	assert.Contains(t, out, "8000")
}

func TestTrimSourcePath(t *testing.T) {
	assert.Equal(t, "internal/checkout/cart.go", trimSourcePath("/home/dev/storefront/internal/checkout/cart.go", "/storefront/"))
	assert.Equal(t, "github.com/x/y.go", trimSourcePath("/go/src/github.com/x/y.go", "/storefront/"))
	assert.Equal(t, "main.go", trimSourcePath("main.go", "/storefront/"))
}
