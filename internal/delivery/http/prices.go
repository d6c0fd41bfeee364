package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPrices(v1 *echo.Group) {
	v1.POST("/prices/refresh", h.refreshPrices)
}

// refreshPrices reprices everything and returns the alerts that fired.
func (h *HttpAPIHandler) refreshPrices(c echo.Context) error {
	fired, err := h.service.RefreshAll(c.Request().Context())
	return h.respond(c, http.StatusOK, "prices refreshed", fired, err)
}
