package handler

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/config"
	"github.com/iliyamo/secure-calc-api/internal/middleware"
	"github.com/iliyamo/secure-calc-api/internal/service"
	"github.com/iliyamo/secure-calc-api/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Identifier string `json:"identifier"`
	// Legacy clients send username or email as separate fields.
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type userResp struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type tokenPairResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func validateRegister(r registerReq) (string, bool) {
	if n := len(strings.TrimSpace(r.Username)); n < 3 || n > 50 {
		return "username must be 3-50 characters", false
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		return "invalid email address", false
	}
	if n := len(r.Password); n < 6 || n > 100 {
		return "password must be 6-100 characters", false
	}
	return "", true
}

// Register creates a user account with the default role.  Unlike login,
// no tokens are issued here; the client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := validateRegister(req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, strings.TrimSpace(req.Username), req.Email, req.Password)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, userResp{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)})
}

// Login verifies credentials and returns an access+refresh pair.  The
// identifier may be a username or an email; failures are reported
// identically either way.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier and password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, _, err := h.Auth.Login(ctx, identifier, req.Password)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, tokenPairResp{
		AccessToken:  pair.Access.Raw,
		RefreshToken: pair.Refresh.Raw,
		TokenType:    "bearer",
	})
}

// Refresh exchanges a refresh token for a new access token.  The
// refresh token is returned unchanged: it is not rotated and stays
// valid until its own expiry or revocation.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, tokenPairResp{
		AccessToken:  access.Raw,
		RefreshToken: strings.TrimSpace(req.RefreshToken),
		TokenType:    "bearer",
	})
}

// Logout supports two modes.  With a refresh_token in the body it
// revokes exactly that token; possession of the token is the
// credential, so no access token is needed.  With a valid bearer access
// token and no body it revokes every session of that user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if refreshToken != "" {
		if err := h.Auth.Logout(ctx, refreshToken); err != nil {
			return writeErr(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	// No refresh token in the body: fall back to revoke-all via the
	// Authorization header.  Parsed here because this route sits
	// outside the JWT middleware.
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide refresh_token or Authorization header"})
	}
	claims, err := utils.ParseToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "), utils.TokenTypeAccess)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	if _, err := h.Auth.RevokeAll(ctx, claims.UserID); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile, resolved live from
// storage so a role change is visible here before the token reflects
// it.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.GetUser(ctx, uid)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)})
}
