// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusApproved is the only processor status that produces a purchase record
const StatusApproved = "approved"

// PurchaseRecord is the immutable snapshot of a paid cart, keyed by the
// processor payment ID
type PurchaseRecord struct {
	PurchaseID string          `gorm:"primaryKey;size:64" json:"purchaseId"`
	UserID     string          `gorm:"not null;size:128;index" json:"userId"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Currency   string          `gorm:"not null;size:3" json:"currency"`
	Status     string          `gorm:"not null;size:32" json:"status"`
	PaidAt     time.Time       `gorm:"not null;index" json:"paidAt"`
	CreatedAt  time.Time       `json:"createdAt"`

	// Relationships
	Items []PurchaseItem `gorm:"foreignKey:PurchaseID;references:PurchaseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// PurchaseItem is one line of a purchase as the processor reported it
type PurchaseItem struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	PurchaseID string          `gorm:"not null;size:64;index" json:"-"`
	Title      string          `gorm:"not null;size:255" json:"title"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"` // Quantity * UnitPrice
}

// TableName overrides
func (PurchaseRecord) TableName() string { return "purchases" }
func (PurchaseItem) TableName() string   { return "purchase_items" }

// ItemsTotal sums unit price times quantity over the item snapshot
func (p *PurchaseRecord) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range p.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// ItemCount returns the total number of units purchased
func (p *PurchaseRecord) ItemCount() int {
	count := 0
	for _, item := range p.Items {
		count += item.Quantity
	}
	return count
}
