package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&CartItem{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(db)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func pizza(id string, qty int, price string) CartItem {
	return CartItem{
		ProductID: id,
		Name:      "Pizza " + id,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

// Both backends must behave the same way
func storeBackends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"gorm": func(t *testing.T) Store { return newGormStore(t) },
		"redis": func(t *testing.T) Store {
			s, _ := newRedisStore(t)
			return s
		},
	}
}

func TestStore_AddIncrementsExistingLine(t *testing.T) {
	for name, build := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			require.NoError(t, s.Add(ctx, "u1", pizza("muzza", 2, "250.00")))
			require.NoError(t, s.Add(ctx, "u1", pizza("muzza", 1, "250.00")))
			require.NoError(t, s.Add(ctx, "u1", pizza("faina", 1, "80.50")))

			items, err := s.Get(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, items, 2)

			assert.Equal(t, "muzza", items[0].ProductID)
			assert.Equal(t, 3, items[0].Quantity)
			assert.True(t, decimal.RequireFromString("250").Equal(items[0].UnitPrice))
			assert.Equal(t, "faina", items[1].ProductID)

			totals := Totals(items)
			assert.Equal(t, 2, totals.ItemCount)
			assert.Equal(t, 4, totals.TotalQuantity)
			assert.True(t, decimal.RequireFromString("830.50").Equal(totals.TotalAmount))
		})
	}
}

func TestStore_CartsAreUserScoped(t *testing.T) {
	for name, build := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			require.NoError(t, s.Add(ctx, "u1", pizza("muzza", 1, "250")))
			require.NoError(t, s.Add(ctx, "u2", pizza("faina", 1, "80")))

			require.NoError(t, s.Clear(ctx, "u1"))

			items, err := s.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, items)

			items, err = s.Get(ctx, "u2")
			require.NoError(t, err)
			assert.Len(t, items, 1)
		})
	}
}

func TestStore_UpdateAndRemove(t *testing.T) {
	for name, build := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			require.NoError(t, s.Add(ctx, "u1", pizza("muzza", 1, "250")))
			require.NoError(t, s.Add(ctx, "u1", pizza("faina", 1, "80")))

			require.NoError(t, s.Update(ctx, "u1", "muzza", 5))
			assert.ErrorIs(t, s.Update(ctx, "u1", "calzone", 2), ErrItemNotFound)

			// Zero quantity drops the line
			require.NoError(t, s.Update(ctx, "u1", "faina", 0))

			items, err := s.Get(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, 5, items[0].Quantity)

			require.NoError(t, s.Remove(ctx, "u1", "muzza"))
			require.NoError(t, s.Remove(ctx, "u1", "muzza"))

			items, err = s.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestStore_ClearEmptyCartIsNoop(t *testing.T) {
	for name, build := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			s := build(t)
			assert.NoError(t, s.Clear(context.Background(), "nobody"))
		})
	}
}

func TestStore_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		item   CartItem
	}{
		{"missing user", "", pizza("muzza", 1, "250")},
		{"missing product", "u1", pizza("", 1, "250")},
		{"zero quantity", "u1", pizza("muzza", 0, "250")},
		{"negative price", "u1", pizza("muzza", 1, "-1")},
		{"missing name", "u1", CartItem{ProductID: "muzza", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	}

	for name, build := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			s := build(t)
			for _, tt := range tests {
				assert.Error(t, s.Add(context.Background(), tt.userID, tt.item), tt.name)
			}
		})
	}
}

func TestRedisStore_AppliesTTL(t *testing.T) {
	s, mr := newRedisStore(t)

	require.NoError(t, s.Add(context.Background(), "u1", pizza("muzza", 1, "250")))
	assert.Equal(t, time.Hour, mr.TTL("cart:user:u1"))
}

func TestRedisStore_WatchStreamsSnapshots(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Add(ctx, "u1", pizza("muzza", 1, "250")))

	updates, err := s.Watch(ctx, "u1")
	require.NoError(t, err)

	initial := <-updates
	require.Len(t, initial, 1)

	require.NoError(t, s.Clear(ctx, "u1"))

	select {
	case snapshot := <-updates:
		assert.Empty(t, snapshot)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after clear")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-updates
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}
