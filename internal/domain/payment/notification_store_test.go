package payment

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openOrderDB opens its own connection pool on a shared database file, the way
// separate service instances share one database
func openOrderDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestHandle_ConcurrentInstancesRecordOnce(t *testing.T) {
	const instances = 10
	path := filepath.Join(t.TempDir(), "orders.db")
	require.NoError(t, openOrderDB(t, path).AutoMigrate(&order.PurchaseRecord{}, &order.PurchaseItem{}))

	carts := newMockCartStore()
	handlers := make([]*NotificationHandler, instances)
	for i := range handlers {
		log, _ := test.NewNullLogger()
		processor := newMockProcessor()
		processor.payments["pay_123"] = approvedPayment("pay_123", "u1")
		recorder := order.NewRecorder(order.NewGormStore(openOrderDB(t, path)), log)
		handlers[i] = NewNotificationHandler(processor, recorder, carts, time.Second, log)
	}

	outcomes := make([]Outcome, instances)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i, h := range handlers {
		wg.Add(1)
		go func(i int, h *NotificationHandler) {
			defer wg.Done()
			<-start
			result, err := h.Handle(context.Background(), TopicPayment, "pay_123")
			if assert.NoError(t, err) {
				outcomes[i] = result.Outcome
			}
		}(i, h)
	}
	close(start)
	wg.Wait()

	recorded, duplicates := 0, 0
	for _, outcome := range outcomes {
		switch outcome {
		case OutcomeRecorded:
			recorded++
		case OutcomeDuplicate:
			duplicates++
		}
	}
	assert.Equal(t, 1, recorded)
	assert.Equal(t, instances-1, duplicates)

	db := openOrderDB(t, path)
	var purchases, items int64
	require.NoError(t, db.Model(&order.PurchaseRecord{}).Count(&purchases).Error)
	require.NoError(t, db.Model(&order.PurchaseItem{}).Count(&items).Error)
	assert.EqualValues(t, 1, purchases)
	assert.EqualValues(t, 1, items)
	assert.Equal(t, 1, carts.clearCalls())
}
