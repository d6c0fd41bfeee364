package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"cryptoTracker/internal/analytics"
	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/utils"
)

func (h *HttpAPIHandler) SetupTrades(v1 *echo.Group) {
	trades := v1.Group("/trades")
	{
		trades.GET("", h.listTrades)
		trades.POST("", h.recordTrade)
		trades.GET("/export", h.exportTrades)
		trades.GET("/stats", h.tradeStats)
		trades.DELETE("/:id", h.deleteTrade)
	}
}

func (h *HttpAPIHandler) listTrades(c echo.Context) error {
	return c.JSON(http.StatusOK, NewSuccessResponse("ok", h.service.Ledger().Trades()))
}

func (h *HttpAPIHandler) recordTrade(c echo.Context) error {
	req := new(RecordTradeRequest)
	if resp := h.bind(c, req); resp != nil {
		return c.JSON(resp.Code, resp)
	}
	date, err := req.TradeDate()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewBadRequestResponse(fmt.Sprintf("invalid date %q", req.Date)))
	}

	trade, err := h.service.RecordTrade(c.Request().Context(), domain.TradeInput{
		Symbol:    req.Coin,
		Direction: domain.TradeDirection(req.Type),
		Amount:    req.Amount,
		UnitPrice: req.Price,
		TradeDate: date,
		Exchange:  req.Exchange,
		Notes:     req.Notes,
	})
	return h.respond(c, http.StatusCreated, "trade recorded", trade, err)
}

func (h *HttpAPIHandler) deleteTrade(c echo.Context) error {
	err := h.service.Ledger().DeleteTrade(c.Request().Context(), c.Param("id"))
	return h.respond(c, http.StatusOK, "trade deleted", nil, err)
}

func (h *HttpAPIHandler) exportTrades(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="crypto-trades.csv"`)
	res.WriteHeader(http.StatusOK)
	return utils.WriteTrades(res, h.service.Ledger().Trades())
}

func (h *HttpAPIHandler) tradeStats(c echo.Context) error {
	return c.JSON(http.StatusOK, NewSuccessResponse("ok", analytics.Analyze(h.service.Ledger().Trades())))
}
