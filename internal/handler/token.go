package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/middleware"
	"github.com/iliyamo/secure-calc-api/internal/model"
	"github.com/iliyamo/secure-calc-api/internal/service"
)

// TokenHandler exposes self-service refresh-token management: a user
// can inspect and revoke their own sessions.
type TokenHandler struct {
	Auth *service.AuthService
}

func NewTokenHandler(auth *service.AuthService) *TokenHandler {
	return &TokenHandler{Auth: auth}
}

func principal(c echo.Context) (model.User, bool) {
	uid, err := middleware.UserID(c)
	if err != nil {
		return model.User{}, false
	}
	role, ok := middleware.RoleOf(c)
	if !ok {
		return model.User{}, false
	}
	return model.User{ID: uid, Role: role}, true
}

// ListMine returns every refresh token the caller ever held, including
// revoked and expired ones.  Token hashes are not serialized.
func (h *TokenHandler) ListMine(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tokens, err := h.Auth.ListTokens(ctx, caller.ID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// RevokeMineByID revokes one of the caller's tokens by id.  A token id
// belonging to someone else reads as 404, so ids cannot be probed.
func (h *TokenHandler) RevokeMineByID(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.RevokeByID(ctx, caller, id); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "revoked"})
}

// RevokeMineByString revokes one of the caller's tokens by its raw
// string, for clients that kept the token but not its id.
func (h *TokenHandler) RevokeMineByString(c echo.Context) error {
	caller, ok := principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.RevokeByString(ctx, caller, strings.TrimSpace(req.RefreshToken)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "revoked"})
}
