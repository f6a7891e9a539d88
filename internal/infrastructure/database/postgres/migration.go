// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("🔄 Running database auto-migrations...")

	// Parents before children
	models := []interface{}{
		// Cart domain
		&cart.CartItem{},

		// Order domain
		&order.PurchaseRecord{},
		&order.PurchaseItem{},
	}

	for _, model := range models {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for the read paths
func (m *Migration) CreateIndexes() error {
	m.logger.Info("🔄 Creating additional database indexes...")

	indexes := []string{
		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_created ON cart_items(user_id, created_at)",

		// Purchase history is read newest first per user
		"CREATE INDEX IF NOT EXISTS idx_purchases_user_paid_at ON purchases(user_id, paid_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(status)",

		// Purchase item indexes
		"CREATE INDEX IF NOT EXISTS idx_purchase_items_purchase ON purchase_items(purchase_id)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("⚠️ Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.logger.Infof("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// VerifyPaymentIntegration checks that the constraints idempotent purchase
// recording relies on are in place
func (m *Migration) VerifyPaymentIntegration() error {
	m.logger.Info("🔍 Verifying payment integration setup...")

	if !m.db.Migrator().HasTable(&order.PurchaseRecord{}) {
		return fmt.Errorf("purchases table is missing")
	}
	if !m.db.Migrator().HasIndex(&cart.CartItem{}, "idx_cart_items_user_product") {
		return fmt.Errorf("cart_items unique index is missing")
	}

	// The purchase ID must be the primary key for duplicate notifications to collapse
	columns, err := m.db.Migrator().ColumnTypes(&order.PurchaseRecord{})
	if err != nil {
		return fmt.Errorf("failed to inspect purchases table: %w", err)
	}
	for _, column := range columns {
		if column.Name() != "purchase_id" {
			continue
		}
		if pk, ok := column.PrimaryKey(); ok && !pk {
			return fmt.Errorf("purchases.purchase_id is not the primary key")
		}
		m.logger.Info("✅ Payment integration verification completed")
		return nil
	}
	return fmt.Errorf("purchases.purchase_id column is missing")
}

// GetTableInfo logs the record count of every table
func (m *Migration) GetTableInfo() error {
	tables, err := m.db.Migrator().GetTables()
	if err != nil {
		return err
	}

	m.logger.Info("📊 Database Tables Information:")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		m.logger.WithFields(logrus.Fields{
			"table":   table,
			"records": count,
		}).Info("table")
	}

	m.logger.WithFields(logrus.Fields{
		"tables":  len(tables),
		"records": totalRecords,
	}).Info("📈 Database totals")

	return nil
}
