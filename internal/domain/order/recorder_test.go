package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRecorder(t *testing.T) (*Recorder, *GormStore, *test.Hook) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&PurchaseRecord{}, &PurchaseItem{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log, hook := test.NewNullLogger()
	store := NewGormStore(db)
	return NewRecorder(store, log), store, hook
}

func pizzaRequest(purchaseID, userID, total string) RecordRequest {
	return RecordRequest{
		UserID:     userID,
		PurchaseID: purchaseID,
		Items: []PurchaseItem{
			{Title: "Pizza muzzarella", Quantity: 2, UnitPrice: decimal.RequireFromString("250")},
		},
		Total:     decimal.RequireFromString(total),
		Currency:  "UYU",
		Timestamp: time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC),
		Status:    StatusApproved,
	}
}

func TestRecorder_RecordsPurchase(t *testing.T) {
	r, store, _ := newTestRecorder(t)
	ctx := context.Background()

	record, err := r.Record(ctx, pizzaRequest("pay_123", "u1", "500"))
	require.NoError(t, err)
	assert.Equal(t, "pay_123", record.PurchaseID)

	stored, err := store.Get(ctx, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.True(t, decimal.NewFromInt(500).Equal(stored.Total))
	assert.Equal(t, "UYU", stored.Currency)
	assert.Equal(t, StatusApproved, stored.Status)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Pizza muzzarella", stored.Items[0].Title)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(500).Equal(stored.Items[0].TotalPrice))
	assert.Equal(t, 2, stored.ItemCount())
}

func TestRecorder_DuplicateFailsLoudlyAndKeepsFirstWrite(t *testing.T) {
	r, store, _ := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.Record(ctx, pizzaRequest("pay_123", "u1", "500"))
	require.NoError(t, err)

	_, err = r.Record(ctx, pizzaRequest("pay_123", "u1", "999"))
	require.Error(t, err)

	var dup *DuplicateOrderError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "pay_123", dup.PurchaseID)
	assert.True(t, IsDuplicate(err))

	stored, err := store.Get(ctx, "pay_123")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(stored.Total))
	assert.Len(t, stored.Items, 1)

	history, err := r.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRecorder_WarnsOnAmountMismatch(t *testing.T) {
	r, store, hook := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.Record(ctx, pizzaRequest("pay_456", "u1", "480"))
	require.NoError(t, err)

	var warning *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warning = entry
		}
	}
	require.NotNil(t, warning)
	assert.Equal(t, "480", warning.Data["total"])
	assert.Equal(t, "500", warning.Data["items_total"])

	// Processor total wins
	stored, err := store.Get(ctx, "pay_456")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(480).Equal(stored.Total))
}

func TestRecorder_ToleratesRounding(t *testing.T) {
	r, _, hook := newTestRecorder(t)

	_, err := r.Record(context.Background(), pizzaRequest("pay_789", "u1", "500.01"))
	require.NoError(t, err)

	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.WarnLevel, entry.Level)
	}
}

func TestRecorder_RequiresIdentifiers(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.Record(ctx, pizzaRequest("", "u1", "500"))
	assert.ErrorIs(t, err, ErrMissingPurchaseID)

	_, err = r.Record(ctx, pizzaRequest("pay_1", "  ", "500"))
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestRecorder_DefaultsTimestampAndStatus(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	req := pizzaRequest("pay_1", "u1", "500")
	req.Timestamp = time.Time{}
	req.Status = ""

	record, err := r.Record(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, fixed, record.PaidAt)
	assert.Equal(t, StatusApproved, record.Status)
}

func TestRecorder_GetIsOwnerScoped(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	ctx := context.Background()

	_, err := r.Record(ctx, pizzaRequest("pay_1", "u1", "500"))
	require.NoError(t, err)

	record, err := r.Get(ctx, "u1", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", record.PurchaseID)

	_, err = r.Get(ctx, "u2", "pay_1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Get(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecorder_HistoryNewestFirst(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	ctx := context.Background()

	older := pizzaRequest("pay_1", "u1", "500")
	newer := pizzaRequest("pay_2", "u1", "500")
	newer.Timestamp = older.Timestamp.Add(time.Hour)
	other := pizzaRequest("pay_3", "u2", "500")

	for _, req := range []RecordRequest{older, newer, other} {
		_, err := r.Record(ctx, req)
		require.NoError(t, err)
	}

	history, err := r.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "pay_2", history[0].PurchaseID)
	assert.Equal(t, "pay_1", history[1].PurchaseID)

	empty, err := r.History(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
