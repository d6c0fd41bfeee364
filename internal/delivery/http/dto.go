package http

import (
	"net/http"
	"time"
)

// BaseResponse is the JSON envelope of every API response.
type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

// AddCoinRequest opens or averages into a position.
type AddCoinRequest struct {
	Symbol   string  `json:"symbol" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	BuyPrice float64 `json:"buyPrice" validate:"required,gt=0"`
}

// RecordTradeRequest logs a buy or sell.
type RecordTradeRequest struct {
	Coin     string  `json:"coin" validate:"required"`
	Type     string  `json:"type" validate:"required,oneof=buy sell"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Date     string  `json:"date"` // RFC3339 or YYYY-MM-DD; empty means now
	Exchange string  `json:"exchange" validate:"max=64"`
	Notes    string  `json:"notes" validate:"max=500"`
}

// TradeDate parses Date. A zero time means "now".
func (r RecordTradeRequest) TradeDate() (time.Time, error) {
	if r.Date == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, r.Date); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", r.Date)
}

// WatchRequest adds a symbol to the watchlist.
type WatchRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

// CreateAlertRequest registers a price alert.
type CreateAlertRequest struct {
	Coin        string  `json:"coin" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=above below"`
	TargetPrice float64 `json:"targetPrice" validate:"required,gt=0"`
}
