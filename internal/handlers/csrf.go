package handlers

import (
	"net/http"

	"github.com/cardify/storefront/internal/checkout"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	csrfContextKey = "csrf"
)

// CSRFOptions configures the double-submit cookie check.
type CSRFOptions struct {
	// Skip disables verification. Only CHECKOUT_TEST_MODE sets it.
	Skip         bool
	SecureCookie bool
}

// CSRF compares the csrf_token cookie with the X-CSRF-Token header on
// unsafe methods. echo compares in constant time and a length mismatch
// never matches.
func CSRF(opts CSRFOptions) echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper: func(echo.Context) bool {
			return opts.Skip
		},
		TokenLength:    32,
		TokenLookup:    "header:" + CSRFHeaderName,
		ContextKey:     csrfContextKey,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieMaxAge:   86400,
		CookieSecure:   opts.SecureCookie,
		CookieSameSite: http.SameSiteStrictMode,
		// The browser reads the cookie to echo it back in the header.
		CookieHTTPOnly: false,
		ErrorHandler: func(err error, c echo.Context) error {
			return writeError(c, &checkout.Error{
				Status:  http.StatusForbidden,
				Code:    checkout.CodeCSRFInvalid,
				Message: "Invalid CSRF token",
				Err:     err,
			})
		},
	})
}

type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// CSRFToken handles GET /api/csrf-token. The CSRF middleware has already
// set the cookie; the token is repeated in the body for clients that
// cannot read cookies.
func CSRFToken(c echo.Context) error {
	token, _ := c.Get(csrfContextKey).(string)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, CSRFTokenResponse{CSRFToken: token})
}
