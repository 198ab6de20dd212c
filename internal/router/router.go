// Package router assembles the echo server: global middleware, public
// routes, authentication routes and the protected /api surface.
package router

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/planit/internal/config"
	"github.com/iliyamo/planit/internal/handler"
	"github.com/iliyamo/planit/internal/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Contacts *handler.ContactHandler
	Projects *handler.ProjectHandler
	Actions  *handler.ActionHandler
}

// Options carries the cross-cutting pieces of the server.
type Options struct {
	JWTSecret string
	DB        *sql.DB
	CORS      config.CORSConfig
	RateLimit echo.MiddlewareFunc // nil disables rate limiting
	Logger    *slog.Logger
}

// New builds a ready-to-start echo instance.
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Metrics())
	if len(opts.CORS.AllowOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: opts.CORS.AllowOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderRequestID},
		}))
	}

	RegisterRoutes(e, opts.DB)
	limit := opts.RateLimit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	RegisterAuth(e, h.Auth, limit)
	api := e.Group("/api", middleware.JWTAuth(opts.JWTSecret), middleware.RequireRole("USER", "ADMIN"), limit)
	RegisterUsers(api, h.Users)
	RegisterContacts(api, h.Contacts)
	RegisterProjects(api, h.Projects)
	RegisterActions(api, h.Actions)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the token endpoints under /auth.  None of them
// require an access token; logout inspects one when present.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)
}
