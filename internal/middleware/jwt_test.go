package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/secure-calc-api/internal/utils"
)

const testSecret = "middleware-test-secret"

func runProtected(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, captured
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	rec, next := runProtected(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, next)
}

func TestJWTAuth_Garbage(t *testing.T) {
	rec, next := runProtected(t, "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, next)
}

func TestJWTAuth_Expired(t *testing.T) {
	tok, err := utils.NewToken(testSecret, 5, "user", utils.TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	rec, next := runProtected(t, "Bearer "+tok.Raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
	assert.Nil(t, next)
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	// A refresh token must never authorize a protected request.
	tok, err := utils.NewToken(testSecret, 5, "user", utils.TokenTypeRefresh, time.Hour)
	require.NoError(t, err)

	rec, next := runProtected(t, "Bearer "+tok.Raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, next)
}

func TestJWTAuth_ValidTokenInjectsPrincipal(t *testing.T) {
	tok, err := utils.NewToken(testSecret, 42, "admin", utils.TokenTypeAccess, time.Hour)
	require.NoError(t, err)

	rec, next := runProtected(t, "Bearer "+tok.Raw)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, next)

	id, err := UserID(next)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.True(t, IsAdmin(next))
}
