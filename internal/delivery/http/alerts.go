package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cryptoTracker/internal/domain"
)

const defaultTriggeredLimit = 10

func (h *HttpAPIHandler) SetupAlerts(v1 *echo.Group) {
	alerts := v1.Group("/alerts")
	{
		alerts.GET("", h.listAlerts)
		alerts.GET("/triggered", h.listTriggered)
		alerts.POST("", h.createAlert)
		alerts.DELETE("/:id", h.removeAlert)
	}
}

func (h *HttpAPIHandler) listAlerts(c echo.Context) error {
	return c.JSON(http.StatusOK, NewSuccessResponse("ok", h.service.Ledger().ActiveAlerts()))
}

func (h *HttpAPIHandler) listTriggered(c echo.Context) error {
	limit := defaultTriggeredLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewBadRequestResponse("limit must be an integer"))
		}
		limit = n
	}
	return c.JSON(http.StatusOK, NewSuccessResponse("ok", h.service.Ledger().TriggeredAlerts(limit)))
}

func (h *HttpAPIHandler) createAlert(c echo.Context) error {
	req := new(CreateAlertRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	alert, err := h.service.Ledger().CreateAlert(c.Request().Context(), req.Coin, domain.AlertCondition(req.Type), req.TargetPrice)
	return h.respond(c, http.StatusCreated, "alert created", alert, err)
}

func (h *HttpAPIHandler) removeAlert(c echo.Context) error {
	err := h.service.Ledger().RemoveAlert(c.Request().Context(), c.Param("id"))
	return h.respond(c, http.StatusOK, "alert removed", nil, err)
}
