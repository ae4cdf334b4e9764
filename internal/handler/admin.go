package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/model"
	"github.com/iliyamo/secure-calc-api/internal/service"
)

// AdminHandler exposes the admin surface.  Routes registered with it
// sit behind RequireRole(admin); handlers here do not re-check the
// role.
type AdminHandler struct {
	Auth *service.AuthService
}

func NewAdminHandler(auth *service.AuthService) *AdminHandler {
	return &AdminHandler{Auth: auth}
}

type roleChangeReq struct {
	Role string `json:"role"`
}

// ListUsers returns all users, paginated via skip/limit.  Refresh-token
// counts are included by default; counts=false skips the JOIN for
// callers that only need the directory.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	offset, limit := parsePage(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if v := c.QueryParam("counts"); v == "false" || v == "0" {
		users, err := h.Auth.ListUsersPlain(ctx, offset, limit)
		if err != nil {
			return writeErr(c, err)
		}
		return c.JSON(http.StatusOK, users)
	}

	users, err := h.Auth.ListUsers(ctx, offset, limit)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// ListTokens returns refresh tokens across all users.
func (h *AdminHandler) ListTokens(c echo.Context) error {
	offset, limit := parsePage(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	tokens, err := h.Auth.ListAllTokens(ctx, offset, limit)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// TokensForUser returns a named user's tokens.
func (h *AdminHandler) TokensForUser(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tokens, err := h.Auth.TokensForUser(ctx, username)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// RevokeAllForUser revokes every refresh token a named user owns.
func (h *AdminHandler) RevokeAllForUser(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Auth.RevokeAllForUsername(ctx, username)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": n})
}

// RevokeByString revokes an arbitrary refresh token by its raw string.
func (h *AdminHandler) RevokeByString(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// Admin caller: ownership scoping does not apply.
	admin := model.User{Role: model.RoleAdmin}
	if err := h.Auth.RevokeByString(ctx, admin, strings.TrimSpace(req.RefreshToken)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "revoked"})
}

// ChangeRole sets a named user's role.  Access tokens issued before the
// change keep the old role until their next refresh; that staleness
// window is expected behavior, not a defect.
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	var req roleChangeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role required"})
	}
	if _, ok := model.ParseRole(strings.TrimSpace(req.Role)); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be user or admin"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.ChangeRole(ctx, username, strings.TrimSpace(req.Role))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)})
}
