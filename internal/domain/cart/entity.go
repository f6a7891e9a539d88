// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product line in a user's cart
type CartItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	UserID    string          `gorm:"not null;size:128;uniqueIndex:idx_cart_items_user_product" json:"-"`
	ProductID string          `gorm:"not null;size:128;uniqueIndex:idx_cart_items_user_product" json:"productId"`
	Name      string          `gorm:"not null;size:255" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal returns unit price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int             `json:"itemCount"`     // Number of unique items
	TotalQuantity int             `json:"totalQuantity"` // Sum of all quantities
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// Totals sums a cart snapshot
func Totals(items []CartItem) CartTotals {
	totals := CartTotals{ItemCount: len(items), TotalAmount: decimal.Zero}
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.TotalAmount = totals.TotalAmount.Add(item.LineTotal())
	}
	return totals
}
