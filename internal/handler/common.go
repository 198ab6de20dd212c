package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planit/internal/middleware"
	"github.com/iliyamo/planit/internal/service"
)

const requestTimeout = 5 * time.Second

// base carries what every authenticated handler needs: principal
// resolution and error mapping.
type base struct {
	resolver *service.Resolver
	errs     ErrorMapper
}

// principal resolves the username stored by JWTAuth to a principal.
func (b base) principal(ctx context.Context, c echo.Context) (service.Principal, error) {
	return b.resolver.Resolve(ctx, middleware.Username(c))
}

func (b base) fail(c echo.Context, err error) error {
	return b.errs.respond(c, err)
}

// requestContext bounds store calls made on behalf of one request.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads the :id path parameter.  On failure it writes the 400
// response and returns false.
func parseID(c echo.Context) (uint64, bool, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	return id, true, nil
}
