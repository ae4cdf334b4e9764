package handler

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/middleware"
)

// ----- DTOs -----

type profileUpdateReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type passwordChangeReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfile changes the caller's username and/or email.  Uniqueness
// is re-checked at the storage layer, so a taken name surfaces as 409.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" && email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if username != "" {
		if n := len(username); n < 3 || n > 50 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must be 3-50 characters"})
		}
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.UpdateProfile(ctx, uid, username, email)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)})
}

// ChangePassword verifies the current password before accepting a new
// one.  Existing sessions stay valid; the client may follow up with a
// revoke-all if it wants to force re-login everywhere.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req passwordChangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if n := len(req.NewPassword); n < 6 || n > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be 6-100 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}
