package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Ledger Errors
	ErrDuplicateEntry       = errors.New("record already exists")
	ErrInsufficientHoldings = errors.New("sell amount exceeds current holdings")
	ErrConflict             = errors.New("change conflicts with current ledger state")

	// Price Source Errors
	ErrUnavailable          = errors.New("price source is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the price source")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("price source authentication failed (check API keys)")

	// Persistence Errors
	ErrPersistence  = errors.New("failed to persist state")
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
