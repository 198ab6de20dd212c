package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planit/internal/service"
)

// ContactHandler serves /api/contacts.
type ContactHandler struct {
	base
	svc *service.ContactService
}

func NewContactHandler(svc *service.ContactService, resolver *service.Resolver, errs ErrorMapper) *ContactHandler {
	return &ContactHandler{base: base{resolver: resolver, errs: errs}, svc: svc}
}

func (h *ContactHandler) List(c echo.Context) error {
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

func (h *ContactHandler) Get(c echo.Context) error {
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

func (h *ContactHandler) Create(c echo.Context) error {
	var in service.ContactInput
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

func (h *ContactHandler) Update(c echo.Context) error {
	id, ok, resp := parseID(c)
	if !ok {
		return resp
	}
	var in service.ContactInput
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

// Delete removes the contact and its action memberships.
func (h *ContactHandler) Delete(c echo.Context) error {
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
