// Package router wires handlers and middleware onto the Echo instance.
// Route registration is split by concern so main can skip optional
// pieces (rate limiting, caching) when their backends are not
// configured.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-calc-api/internal/handler"
	"github.com/iliyamo/secure-calc-api/internal/middleware"
	"github.com/iliyamo/secure-calc-api/internal/model"
)

// Handlers carries every handler the router registers.
type Handlers struct {
	Auth  *handler.AuthHandler
	Token *handler.TokenHandler
	Admin *handler.AdminHandler
	Calc  *handler.CalcHandler
}

// Options carries optional cross-cutting middleware.  A nil entry means
// the feature is disabled and routes are registered without it.
type Options struct {
	RateLimit echo.MiddlewareFunc // applied to /v1/auth
	Cache     echo.MiddlewareFunc // applied to the stateless calculator
}

// Register mounts the full route tree.
func Register(e *echo.Echo, h Handlers, secret string, opts Options) {
	e.GET("/healthz", handler.Health)

	registerAuth(e, h.Auth, opts.RateLimit)
	registerStateless(e, h.Calc, opts.Cache)
	registerProtected(e, h, secret)
	registerAdmin(e, h, secret)
}

// registerAuth mounts the unauthenticated session endpoints.  These are
// the brute-forceable surface, so the rate limiter goes here.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limit != nil {
		g.Use(limit)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token in the body or a bearer
	// access token, so it stays outside the JWT group.
	g.POST("/logout", a.Logout)
}

// registerStateless mounts the pure calculator endpoints.  They touch
// no per-user state, which is what makes them safe to cache.
func registerStateless(e *echo.Echo, ch *handler.CalcHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/calc")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/:op", ch.Stateless)
}

// registerProtected mounts everything that needs a valid access token:
// the caller's profile, their refresh token inventory and the
// calculation resource.
func registerProtected(e *echo.Echo, h Handlers, secret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(secret))
	g.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	g.GET("/me", h.Auth.Me)
	g.PATCH("/me", h.Auth.UpdateProfile)
	g.POST("/me/password", h.Auth.ChangePassword)

	g.GET("/me/tokens", h.Token.ListMine)
	g.DELETE("/me/tokens/:id", h.Token.RevokeMineByID)
	g.POST("/me/tokens/revoke", h.Token.RevokeMineByString)

	g.GET("/calculations", h.Calc.List)
	g.POST("/calculations", h.Calc.Create)
	g.GET("/calculations/:id", h.Calc.Read)
	g.PUT("/calculations/:id", h.Calc.Update)
	g.PATCH("/calculations/:id", h.Calc.Patch)
	g.DELETE("/calculations/:id", h.Calc.Delete)
}

// registerAdmin mounts the administrative surface.
func registerAdmin(e *echo.Echo, h Handlers, secret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(secret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.GET("/users", h.Admin.ListUsers)
	g.GET("/tokens", h.Admin.ListTokens)
	g.GET("/users/:username/tokens", h.Admin.TokensForUser)
	g.POST("/users/:username/revoke-all", h.Admin.RevokeAllForUser)
	g.POST("/tokens/revoke", h.Admin.RevokeByString)
	g.POST("/users/:username/role", h.Admin.ChangeRole)
}
