package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planit/internal/service"
)

// ActionHandler serves /api/actions.
type ActionHandler struct {
	base
	svc *service.ActionService
}

func NewActionHandler(svc *service.ActionService, resolver *service.Resolver, errs ErrorMapper) *ActionHandler {
	return &ActionHandler{base: base{resolver: resolver, errs: errs}, svc: svc}
}

// List returns the caller's own actions.
func (h *ActionHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.svc.ListOwned(ctx, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListAssigned returns the actions the caller is assigned to.
func (h *ActionHandler) ListAssigned(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.svc.ListAssigned(ctx, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ActionHandler) Get(c echo.Context) error {
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
	out, err := h.svc.GetByID(ctx, id, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ActionHandler) Create(c echo.Context) error {
	var in service.ActionInput
	if ok, resp := bind(c, &in); !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.svc.Create(ctx, in, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ActionHandler) Update(c echo.Context) error {
	id, ok, resp := parseID(c)
	if !ok {
		return resp
	}
	var in service.ActionInput
	if ok, resp := bind(c, &in); !ok {
		return resp
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.principal(ctx, c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.svc.Update(ctx, id, in, p)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ActionHandler) Delete(c echo.Context) error {
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
	if err := h.svc.Delete(ctx, id, p); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
