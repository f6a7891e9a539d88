// internal/domain/payment/errors.go
package payment

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"github.com/your-org/storefront-checkout/internal/pkg/mercadopago"
)

// InvalidCartError is a client-correctable defect in the checkout input.
// Index is -1 when the defect is not tied to one line.
type InvalidCartError struct {
	Field  string
	Index  int
	Reason string
}

func (e *InvalidCartError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid cart: item %d: %s: %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid cart: %s: %s", e.Field, e.Reason)
}

// PaymentProcessorError is a failure talking to the payment processor.
// StatusCode is 0 when no HTTP answer was received.
type PaymentProcessorError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *PaymentProcessorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment processor %s failed (%d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payment processor %s failed: %s", e.Op, e.Message)
}

func (e *PaymentProcessorError) Unwrap() error {
	return e.Err
}

// CartClearError reports a cart that could not be cleared after its purchase was recorded
type CartClearError struct {
	UserID string
	Err    error
}

func (e *CartClearError) Error() string {
	return fmt.Sprintf("failed to clear cart for user %s: %v", e.UserID, e.Err)
}

func (e *CartClearError) Unwrap() error {
	return e.Err
}

func newProcessorError(op string, err error) *PaymentProcessorError {
	perr := &PaymentProcessorError{Op: op, Message: err.Error(), Err: err}

	var apiErr *mercadopago.APIError
	switch {
	case errors.As(err, &apiErr):
		perr.StatusCode = apiErr.StatusCode
		perr.Message = apiErr.Message
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		perr.StatusCode = http.StatusServiceUnavailable
		perr.Message = "payment processor temporarily unavailable"
	}
	return perr
}
