package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planit/internal/service"
)

// UserHandler serves /api/users: the directory, profiles and account
// deletion.
type UserHandler struct {
	base
	users *service.UserService
}

func NewUserHandler(users *service.UserService, resolver *service.Resolver, errs ErrorMapper) *UserHandler {
	return &UserHandler{base: base{resolver: resolver, errs: errs}, users: users}
}

// List returns every user as a summary, for picking assignees.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := h.principal(ctx, c); err != nil {
		return h.fail(c, err)
	}
	out, err := h.users.ListUsers(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.users.Me(ctx, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateMe edits the caller's own profile.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var in service.ProfileInput
	if ok, resp := bind(c, &in); !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.users.UpdateProfile(ctx, p.ID, in, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok, resp := parseID(c)
	if !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := h.principal(ctx, c); err != nil {
		return h.fail(c, err)
	}
	out, err := h.users.GetUser(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Update edits a profile: the caller's own, or anyone's for an ADMIN.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok, resp := parseID(c)
	if !ok {
		return resp
	}
	var in service.ProfileInput
	if ok, resp := bind(c, &in); !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.users.UpdateProfile(ctx, id, in, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Delete runs the user deletion cascade.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok, resp := parseID(c)
	if !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.users.Delete(ctx, id, p); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
