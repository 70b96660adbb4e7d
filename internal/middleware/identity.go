package middleware

// identity.go reads the caller identity the frontend sends along with each
// request.  There is no authentication: the role is whatever the client
// selected, and the user id is only used to key rate limits.

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Header names carrying the client-selected identity.
const (
	HeaderRole   = "X-User-Role"
	HeaderUserID = "X-User-Id"
)

// Context keys set by Identity.
const (
	ctxRole   = "role"
	ctxUserID = "user_id"
)

// Identity copies the role and user id headers into the request context so
// downstream middleware and handlers can read them with c.Get.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			c.Set(ctxRole, strings.ToLower(strings.TrimSpace(h.Get(HeaderRole))))
			c.Set(ctxUserID, strings.TrimSpace(h.Get(HeaderUserID)))
			return next(c)
		}
	}
}

// userID returns the caller's user id, or "guest" when none was sent.
func userID(c echo.Context) string {
	if v, ok := c.Get(ctxUserID).(string); ok && v != "" {
		return v
	}
	return "guest"
}

// callerRole returns the normalised role, or "anonymous" when none was sent.
func callerRole(c echo.Context) string {
	if v, ok := c.Get(ctxRole).(string); ok && v != "" {
		return v
	}
	return "anonymous"
}
