package http

import (
	"context"
	"errors"
	"net/http"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"cryptoTracker/internal/app"
	"cryptoTracker/internal/ports"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *app.TrackerService
	logger    ports.Logger
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *app.TrackerService, logger ports.Logger) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
		logger:    logger,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	v1 := base.Group("/v1")
	h.SetupPortfolio(v1)
	h.SetupTrades(v1)
	h.SetupWatchlist(v1)
	h.SetupAlerts(v1)
	h.SetupPrices(v1)
}

// bind decodes and validates the request body into req.
func (h *HttpAPIHandler) bind(c echo.Context, req interface{}) *BaseResponse {
	if err := c.Bind(req); err != nil {
		return NewBadRequestResponse("invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return NewBadRequestResponse(err.Error())
	}
	return nil
}

// respond writes data with successCode, or the error mapped to a status.
// Persistence failures still carry data: the change is live in memory.
func (h *HttpAPIHandler) respond(c echo.Context, successCode int, message string, data interface{}, err error) error {
	if err == nil {
		return c.JSON(successCode, NewBaseResponse(successCode, message, data))
	}
	if errors.Is(err, ports.ErrPersistence) {
		h.logger.Warn(c.Request().Context(), "Request applied but not persisted", map[string]interface{}{
			"path":  c.Path(),
			"error": err.Error(),
		})
		return c.JSON(successCode, NewBaseResponse(successCode, message+" (warning: changes not saved: "+err.Error()+")", data))
	}

	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error(c.Request().Context(), err, "Request failed", map[string]interface{}{"path": c.Path()})
	}
	return c.JSON(code, NewBaseResponse(code, err.Error(), nil))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrDuplicateEntry), errors.Is(err, ports.ErrInsufficientHoldings),
		errors.Is(err, ports.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
