package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planit/internal/service"
)

// ProjectHandler serves /api/projects.
type ProjectHandler struct {
	base
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService, resolver *service.Resolver, errs ErrorMapper) *ProjectHandler {
	return &ProjectHandler{base: base{resolver: resolver, errs: errs}, svc: svc}
}

func (h *ProjectHandler) List(c echo.Context) error {
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

func (h *ProjectHandler) Get(c echo.Context) error {
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

func (h *ProjectHandler) Create(c echo.Context) error {
	var in service.ProjectInput
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

func (h *ProjectHandler) Update(c echo.Context) error {
	id, ok, resp := parseID(c)
	if !ok {
		return resp
	}
	var in service.ProjectInput
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

// Delete unlinks referencing actions and removes the project.
func (h *ProjectHandler) Delete(c echo.Context) error {
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
