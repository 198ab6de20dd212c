package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planit/internal/middleware"
	"github.com/iliyamo/planit/internal/service"
	"github.com/iliyamo/planit/internal/utils"
)

// AuthHandler serves the unauthenticated /auth endpoints.
type AuthHandler struct {
	base
	users     *service.UserService
	jwtSecret string
}

func NewAuthHandler(users *service.UserService, resolver *service.Resolver, jwtSecret string, errs ErrorMapper) *AuthHandler {
	return &AuthHandler{base: base{resolver: resolver, errs: errs}, users: users, jwtSecret: jwtSecret}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates a USER account and returns a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if ok, resp := bind(c, &req); !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sess, err := h.users.Register(ctx, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, resp := bind(c, &req); !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sess, err := h.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sess, err := h.users.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// RefreshAccess returns a new access token and keeps the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sess, err := h.users.RefreshAccess(ctx, req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// Logout revokes the refresh token in the body or, with only a valid
// bearer token, every session of that user.  The route is public so a
// client holding just a refresh token can still log out.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // an empty or malformed body just means "no refresh token"

	ctx, cancel := requestContext(c)
	defer cancel()

	var principal *service.Principal
	if strings.TrimSpace(req.RefreshToken) == "" {
		if raw, ok := middleware.BearerToken(c); ok {
			claims, err := utils.ParseAccessToken(h.jwtSecret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			p, err := h.resolver.Resolve(ctx, claims.Username)
			if err != nil {
				return h.fail(c, err)
			}
			principal = &p
		}
	}
	if err := h.users.Logout(ctx, req.RefreshToken, principal); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
