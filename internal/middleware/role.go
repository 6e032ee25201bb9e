package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware enforcing that the authenticated user
// holds one of the given roles, as stored in the JWT "role" claim.  A
// missing or disallowed role aborts with 403.  It assumes JWTAuth has
// already placed the role in the context.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
