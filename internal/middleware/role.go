package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// user holds one of the given roles.  The role claim is first validated
// against the closed enum, so an unrecognized value in a token fails
// closed with 403 instead of sliding through a string comparison.  It
// assumes JWTAuth has already stored the role in the context.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := c.Get(ContextRole).(string)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			role, ok := model.ParseRole(raw)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
