package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys for storing auth data
const (
	UserIDKey          = "user_id"
	UserEmailKey       = "user_email"
	IsAuthenticatedKey = "is_authenticated"
)

// AccessTokenCookie is the cookie the Supabase browser client writes.
const AccessTokenCookie = "sb-access-token"

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrInvalidHeader  = errors.New("invalid authorization header format")
)

// Verifier checks Supabase access tokens signed with the project JWT secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Claims is the subset of the Supabase access token we read.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("jwt invalid")
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Authenticate resolves the caller from a Bearer header or the Supabase
// session cookie. It returns nil claims and no error when no token is
// present.
func (v *Verifier) Authenticate(c echo.Context) (*Claims, error) {
	token, err := extractToken(c)
	if err != nil || token == "" {
		return nil, err
	}
	return v.Verify(token)
}

// SupabaseAuthMiddleware stores the caller on the echo context. Requests
// without a token pass through anonymously; a token that fails
// verification is rejected with 401.
func SupabaseAuthMiddleware(v *Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(IsAuthenticatedKey, false)

			claims, err := v.Authenticate(c)
			if err != nil {
				slog.Debug("rejected access token", "error", err, "path", c.Path())
				return unauthorized(c, "Invalid or expired access token")
			}
			if claims != nil {
				SetUser(c, claims)
			}
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests. It must run after SupabaseAuthMiddleware.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAuthenticated(c) {
				return unauthorized(c, "Authentication required")
			}
			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", ErrInvalidHeader
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", nil
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"error": message,
		"code":  "UNAUTHORIZED",
	})
}
