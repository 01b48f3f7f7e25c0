package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cardify/storefront/internal/auth"
	"github.com/cardify/storefront/internal/checkout"
	"github.com/cardify/storefront/internal/metrics"
	"github.com/labstack/echo/v4"
)

// SessionCreator is implemented by *checkout.Composer.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, in checkout.Input) (*checkout.Session, error)
}

type CheckoutHandler struct {
	sessions SessionCreator
	verifier *auth.Verifier
	metrics  *metrics.Metrics
	// origin is the configured public base URL, never the request Host.
	origin string
}

func NewCheckoutHandler(sessions SessionCreator, verifier *auth.Verifier, m *metrics.Metrics, origin string) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		verifier: verifier,
		metrics:  m,
		origin:   strings.TrimRight(origin, "/"),
	}
}

type CheckoutSessionResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	URL     string `json:"url"`
}

// ErrorResponse is the failure body shared by every API route.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

const modeUnknown = "unknown"

// CreateCheckoutSession handles POST /api/create-checkout-session. The CSRF
// check has already run as middleware.
func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	var req checkout.Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return h.fail(c, modeUnknown, &checkout.Error{
			Status:  http.StatusBadRequest,
			Code:    checkout.CodeInvalidJSON,
			Message: "Request body must be valid JSON",
			Err:     err,
		})
	}
	mode := string(req.Mode())

	claims, err := h.verifier.Authenticate(c)
	if err != nil {
		return h.fail(c, mode, &checkout.Error{
			Status:  http.StatusUnauthorized,
			Code:    checkout.CodeUnauthorized,
			Message: "Invalid or expired access token",
			Err:     err,
		})
	}

	in := checkout.Input{
		Request: &req,
		Origin:  h.origin,
	}
	if claims != nil {
		auth.SetUser(c, claims)
		in.UserID = claims.Subject
	}

	session, err := h.sessions.CreateCheckoutSession(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, mode, checkout.AsError(err))
	}

	h.metrics.CheckoutSession(mode, "OK")
	slog.Info("checkout session created",
		"session_id", session.ID,
		"mode", mode,
		"user_id", in.UserID,
	)
	return c.JSON(http.StatusOK, CheckoutSessionResponse{
		Success: true,
		ID:      session.ID,
		URL:     session.URL,
	})
}

// MethodNotAllowed answers every non-POST method on the checkout route.
func (h *CheckoutHandler) MethodNotAllowed(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
	return writeError(c, &checkout.Error{
		Status:  http.StatusMethodNotAllowed,
		Code:    checkout.CodeMethodNotAllowed,
		Message: "Method not allowed",
	})
}

func (h *CheckoutHandler) fail(c echo.Context, mode string, e *checkout.Error) error {
	h.metrics.CheckoutSession(mode, e.Code)

	attrs := []any{"code", e.Code, "status", e.Status, "mode", mode}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	if e.Status >= http.StatusInternalServerError {
		slog.Error("checkout session failed", attrs...)
	} else {
		slog.Warn("checkout request rejected", attrs...)
	}
	return writeError(c, e)
}

func writeError(c echo.Context, e *checkout.Error) error {
	return c.JSON(e.Status, ErrorResponse{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	})
}
