package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPortfolio(v1 *echo.Group) {
	portfolio := v1.Group("/portfolio")
	{
		portfolio.GET("", h.listPositions)
		portfolio.GET("/summary", h.portfolioSummary)
		portfolio.POST("/coins", h.addCoin)
		portfolio.DELETE("/coins/:id", h.removeCoin)
	}
}

func (h *HttpAPIHandler) listPositions(c echo.Context) error {
	return c.JSON(http.StatusOK, NewSuccessResponse("ok", h.service.Ledger().Positions()))
}

func (h *HttpAPIHandler) portfolioSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, NewSuccessResponse("ok", h.service.Ledger().PortfolioSummary()))
}

func (h *HttpAPIHandler) addCoin(c echo.Context) error {
	req := new(AddCoinRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}

	pos, err := h.service.AddCoin(c.Request().Context(), req.Symbol, req.Amount, req.BuyPrice)
	return h.respond(c, http.StatusCreated, "coin added", pos, err)
}

func (h *HttpAPIHandler) removeCoin(c echo.Context) error {
	err := h.service.Ledger().RemovePosition(c.Request().Context(), c.Param("id"))
	return h.respond(c, http.StatusOK, "coin removed", nil, err)
}
