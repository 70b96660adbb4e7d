package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the caller
// selected one of the specified roles.  It assumes Identity has stored the
// role in the context under the key "role".  If the role is not in the
// allowed set, the request is aborted with a 403 Forbidden response in the
// API envelope.  When enabled is false the middleware lets every request
// through, which is how the original frontend talks to the API.
func RequireRole(enabled bool, roles ...string) echo.MiddlewareFunc {
	if !enabled {
		return passThrough
	}
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "forbidden"})
			}
			return next(c)
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
