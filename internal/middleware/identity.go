package middleware

// identity.go provides helpers for reading the authenticated principal
// that JWTAuth stored in the Echo context.  Handlers use these instead
// of repeating type assertions.

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/model"
)

// ErrNoPrincipal is returned when no authenticated user is present in
// the context, which on a protected route means a wiring mistake.
var ErrNoPrincipal = errors.New("no authenticated principal in context")

// UserID extracts the authenticated user's id from the context.
func UserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get(ContextUserID).(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, ErrNoPrincipal
}

// RoleOf extracts and validates the authenticated user's role.  An
// unknown role value reports false, so callers fail closed.
func RoleOf(c echo.Context) (model.Role, bool) {
	raw, ok := c.Get(ContextRole).(string)
	if !ok {
		return "", false
	}
	return model.ParseRole(raw)
}

// IsAdmin reports whether the current principal holds the admin role.
func IsAdmin(c echo.Context) bool {
	role, ok := RoleOf(c)
	return ok && role == model.RoleAdmin
}
