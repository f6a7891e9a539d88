// internal/domain/order/errors.go
package order

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPurchaseID = errors.New("purchase ID is required")
	ErrMissingUserID     = errors.New("user ID is required")
	ErrNotFound          = errors.New("purchase not found")
)

// DuplicateOrderError reports that a purchase ID was already recorded.
// Callers reconciling processor notifications treat it as success.
type DuplicateOrderError struct {
	PurchaseID string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("purchase %s already recorded", e.PurchaseID)
}

// IsDuplicate reports whether err is a DuplicateOrderError
func IsDuplicate(err error) bool {
	var dup *DuplicateOrderError
	return errors.As(err, &dup)
}
