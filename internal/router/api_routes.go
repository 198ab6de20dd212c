package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planit/internal/handler"
)

// RegisterUsers mounts the user directory and profile routes.  /me is
// registered before /:id so it is never parsed as an id.
func RegisterUsers(g *echo.Group, h *handler.UserHandler) {
	g.GET("/users", h.List)
	g.GET("/users/me", h.Me)
	g.PUT("/users/me", h.UpdateMe)
	g.GET("/users/:id", h.Get)
	g.PUT("/users/:id", h.Update)
	g.DELETE("/users/:id", h.Delete)
}

func RegisterContacts(g *echo.Group, h *handler.ContactHandler) {
	g.GET("/contacts", h.List)
	g.POST("/contacts", h.Create)
	g.GET("/contacts/:id", h.Get)
	g.PUT("/contacts/:id", h.Update)
	g.DELETE("/contacts/:id", h.Delete)
}

func RegisterProjects(g *echo.Group, h *handler.ProjectHandler) {
	g.GET("/projects", h.List)
	g.POST("/projects", h.Create)
	g.GET("/projects/:id", h.Get)
	g.PUT("/projects/:id", h.Update)
	g.DELETE("/projects/:id", h.Delete)
}

// RegisterActions mounts the action routes.  Reads are open to the owner
// and assigned users; writes are owner-only, enforced by the service.
func RegisterActions(g *echo.Group, h *handler.ActionHandler) {
	g.GET("/actions", h.List)
	g.POST("/actions", h.Create)
	g.GET("/actions/assigned-to-me", h.ListAssigned)
	g.GET("/actions/:id", h.Get)
	g.PUT("/actions/:id", h.Update)
	g.DELETE("/actions/:id", h.Delete)
}
