package domain

import "errors"

// Sentinel errors returned by the order book. Every one of them is terminal
// for the request and leaves the book usable.
var (
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrDuplicateOrderID    = errors.New("duplicate_order_id")
	ErrUnfilledMarketOrder = errors.New("market_order_unfilled")
)

// ValidationError represents a malformed or out-of-range request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Error codes stored in the error history.
const (
	CodeValidation       = "validation_error"
	CodeNotFound         = "order_not_found"
	CodeDuplicateOrderID = "duplicate_order_id"
	CodeUnfilledMarket   = "market_order_unfilled"
	CodeInternal         = "internal_error"
)

// ErrorCode maps an error returned by the book to its stable code.
func ErrorCode(err error) string {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return CodeValidation
	case errors.Is(err, ErrOrderNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateOrderID):
		return CodeDuplicateOrderID
	case errors.Is(err, ErrUnfilledMarketOrder):
		return CodeUnfilledMarket
	}
	return CodeInternal
}
