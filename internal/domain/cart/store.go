// internal/domain/cart/store.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrItemNotFound     = errors.New("item not found in cart")
	ErrMissingUserID    = errors.New("user ID required for cart")
	ErrMissingProductID = errors.New("product ID required for cart item")
)

// ValidationError reports a cart line rejected before it reached storage
type ValidationError struct {
	ProductID string
	Reason    string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidationError reports whether err is a rejected cart input
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Store is the durable, user-scoped product -> quantity mapping.
//
// Mutations are last-write-wins per (userID, productID). Clear on an empty
// cart is a no-op.
type Store interface {
	Get(ctx context.Context, userID string) ([]CartItem, error)
	// Add increments the line for item.ProductID by item.Quantity, creating it if absent.
	Add(ctx context.Context, userID string, item CartItem) error
	// Update sets the line quantity; quantity <= 0 removes the line.
	Update(ctx context.Context, userID, productID string, quantity int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

// Watcher is implemented by stores that can push cart snapshots as they change
type Watcher interface {
	Watch(ctx context.Context, userID string) (<-chan []CartItem, error)
}

func validateAdd(userID string, item CartItem) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	if strings.TrimSpace(item.ProductID) == "" {
		return ErrMissingProductID
	}
	if item.Quantity <= 0 {
		return &ValidationError{ProductID: item.ProductID, Reason: fmt.Sprintf("quantity must be positive, got %d", item.Quantity)}
	}
	if !item.UnitPrice.IsPositive() {
		return &ValidationError{ProductID: item.ProductID, Reason: fmt.Sprintf("unit price must be positive, got %s", item.UnitPrice)}
	}
	if strings.TrimSpace(item.Name) == "" {
		return &ValidationError{ProductID: item.ProductID, Reason: "name required for product " + item.ProductID}
	}
	return nil
}

func validateLine(userID, productID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	if strings.TrimSpace(productID) == "" {
		return ErrMissingProductID
	}
	return nil
}
