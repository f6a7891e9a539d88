// internal/domain/cart/gorm_store.go
package cart

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps carts in the cart_items table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new database backed cart store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get retrieves the cart lines for a user
func (s *GormStore) Get(ctx context.Context, userID string) ([]CartItem, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	var items []CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}
	return items, nil
}

// Add creates the line or increments its quantity in one statement
func (s *GormStore) Add(ctx context.Context, userID string, item CartItem) error {
	if err := validateAdd(userID, item); err != nil {
		return err
	}

	item.ID = 0
	item.UserID = userID

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"name":       gorm.Expr("excluded.name"),
			"unit_price": gorm.Expr("excluded.unit_price"), // Price may have changed in the catalog
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to add item to cart: %w", err)
	}
	return nil
}

// Update sets the quantity of an existing line
func (s *GormStore) Update(ctx context.Context, userID, productID string, quantity int) error {
	if err := validateLine(userID, productID); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	result := s.db.WithContext(ctx).Model(&CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Remove deletes a line; removing an absent line is not an error
func (s *GormStore) Remove(ctx context.Context, userID, productID string) error {
	if err := validateLine(userID, productID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear removes all lines for a user
func (s *GormStore) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
