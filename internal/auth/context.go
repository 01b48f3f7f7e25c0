package auth

import "github.com/labstack/echo/v4"

// IsAuthenticated reports whether SupabaseAuthMiddleware accepted a token.
func IsAuthenticated(c echo.Context) bool {
	ok, _ := c.Get(IsAuthenticatedKey).(bool)
	return ok
}

// GetUserID returns the Supabase user id, or "" for anonymous requests.
func GetUserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

func GetUserEmail(c echo.Context) string {
	email, _ := c.Get(UserEmailKey).(string)
	return email
}

// SetUser marks the request as authenticated by claims.
func SetUser(c echo.Context, claims *Claims) {
	c.Set(IsAuthenticatedKey, true)
	c.Set(UserIDKey, claims.Subject)
	c.Set(UserEmailKey, claims.Email)
}
