// internal/domain/payment/line.go
package payment

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
)

// Line is the one item shape accepted by intent creation
type Line struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// LinesFromCart normalizes stored cart items into intent lines
func LinesFromCart(items []cart.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		// Zero quantity lines are equivalent to absence
		if item.Quantity == 0 {
			continue
		}
		lines = append(lines, Line{
			Title:     strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return lines
}

// ValidateLines rejects an intent before any processor call is made
func ValidateLines(userID string, lines []Line) error {
	if strings.TrimSpace(userID) == "" {
		return &InvalidCartError{Field: "userId", Index: -1, Reason: "user ID is required"}
	}
	if len(lines) == 0 {
		return &InvalidCartError{Field: "items", Index: -1, Reason: "cart is empty"}
	}

	for i, line := range lines {
		switch {
		case strings.TrimSpace(line.Title) == "":
			return &InvalidCartError{Field: "title", Index: i, Reason: "title is required"}
		case line.Quantity <= 0:
			return &InvalidCartError{Field: "quantity", Index: i, Reason: "quantity must be positive"}
		case !line.UnitPrice.IsPositive():
			return &InvalidCartError{Field: "unitPrice", Index: i, Reason: "unit price must be positive"}
		}
	}
	return nil
}

// Total sums unit price times quantity
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}
