// internal/domain/order/store.go
package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists purchase records. Create is write-once per PurchaseID.
type Store interface {
	Create(ctx context.Context, record *PurchaseRecord) error
	Get(ctx context.Context, purchaseID string) (*PurchaseRecord, error)
	ListByUser(ctx context.Context, userID string) ([]PurchaseRecord, error)
}

// GormStore keeps purchases in the purchases and purchase_items tables
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new database backed order store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Create inserts the record and its items in one transaction. A second
// insert for the same PurchaseID writes nothing and returns *DuplicateOrderError.
func (s *GormStore) Create(ctx context.Context, record *PurchaseRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(record)
		if result.Error != nil {
			return fmt.Errorf("failed to create purchase: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &DuplicateOrderError{PurchaseID: record.PurchaseID}
		}

		if len(record.Items) == 0 {
			return nil
		}
		for i := range record.Items {
			record.Items[i].PurchaseID = record.PurchaseID
		}
		if err := tx.Create(&record.Items).Error; err != nil {
			return fmt.Errorf("failed to create purchase items: %w", err)
		}
		return nil
	})
}

// Get retrieves a purchase with its items
func (s *GormStore) Get(ctx context.Context, purchaseID string) (*PurchaseRecord, error) {
	var record PurchaseRecord
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("purchase_id = ?", purchaseID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve purchase: %w", err)
	}
	return &record, nil
}

// ListByUser retrieves a user's purchases, newest first
func (s *GormStore) ListByUser(ctx context.Context, userID string) ([]PurchaseRecord, error) {
	var records []PurchaseRecord
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("paid_at DESC, purchase_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve purchases: %w", err)
	}
	return records, nil
}
