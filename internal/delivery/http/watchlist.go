package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupWatchlist(v1 *echo.Group) {
	watchlist := v1.Group("/watchlist")
	{
		watchlist.GET("", h.listWatchlist)
		watchlist.POST("", h.addWatch)
		watchlist.DELETE("/:id", h.removeWatch)
	}
}

func (h *HttpAPIHandler) listWatchlist(c echo.Context) error {
	return c.JSON(http.StatusOK, NewSuccessResponse("ok", h.service.Ledger().Watchlist()))
}

func (h *HttpAPIHandler) addWatch(c echo.Context) error {
	req := new(WatchRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	entry, err := h.service.Watch(c.Request().Context(), req.Symbol)
	return h.respond(c, http.StatusCreated, "symbol watched", entry, err)
}

func (h *HttpAPIHandler) removeWatch(c echo.Context) error {
	err := h.service.Ledger().RemoveWatch(c.Request().Context(), c.Param("id"))
	return h.respond(c, http.StatusOK, "symbol unwatched", nil, err)
}
