package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cardify/storefront/internal/imagegen"
	"github.com/cardify/storefront/internal/metrics"
	"github.com/cardify/storefront/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

const (
	CodeRateLimited           = "RATE_LIMITED"
	CodeInvalidPrompt         = "INVALID_PROMPT"
	CodeImageGenerationFailed = "IMAGE_GENERATION_FAILED"
)

type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ImageHandler struct {
	generator ImageGenerator
	limiter   ratelimit.Limiter
	metrics   *metrics.Metrics
}

func NewImageHandler(generator ImageGenerator, limiter ratelimit.Limiter, m *metrics.Metrics) *ImageHandler {
	return &ImageHandler{
		generator: generator,
		limiter:   limiter,
		metrics:   m,
	}
}

type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
}

type GenerateImageResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

// GenerateImage handles POST /api/generate-image.
func (h *ImageHandler) GenerateImage(c echo.Context) error {
	ctx := c.Request().Context()
	ip := c.RealIP()

	decision, err := h.limiter.Allow(ctx, "ip:"+ip)
	if err != nil {
		// Fail open: an unavailable counter must not block generation.
		slog.Warn("rate limiter unavailable", "error", err, "ip", ip)
	} else {
		c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			h.metrics.ImageGeneration(metrics.OutcomeRateLimited)
			slog.Info("image generation rate limited", "ip", ip)
			c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(decision.RetryAfterSeconds()))
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Too many image generation requests. Please wait and try again.",
				Code:  CodeRateLimited,
			})
		}
	}

	var req GenerateImageRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		h.metrics.ImageGeneration(metrics.OutcomeInvalid)
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Request body must be valid JSON",
			Code:  "INVALID_JSON",
		})
	}

	prompt, err := imagegen.ValidatePrompt(req.Prompt)
	if err != nil {
		h.metrics.ImageGeneration(metrics.OutcomeInvalid)
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  CodeInvalidPrompt,
		})
	}

	imageURL, err := h.generator.Generate(ctx, prompt)
	if err != nil {
		h.metrics.ImageGeneration(metrics.OutcomeFailed)
		if errors.Is(err, imagegen.ErrNotConfigured) {
			slog.Error("image generation requested without OPENAI_API_KEY")
		} else {
			slog.Error("image generation failed", "error", err, "ip", ip)
		}
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "Failed to generate image",
			Code:  CodeImageGenerationFailed,
		})
	}

	h.metrics.ImageGeneration(metrics.OutcomeSuccess)
	return c.JSON(http.StatusOK, GenerateImageResponse{
		Success:  true,
		ImageURL: imageURL,
	})
}
