package payment

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/your-org/storefront-checkout/internal/domain/cart"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/pkg/mercadopago"
)

// mockProcessor is a scripted processor
type mockProcessor struct {
	mu          sync.Mutex
	preferences []mercadopago.PreferenceRequest
	lookups     int

	preference *mercadopago.Preference
	prefErr    error

	payments   map[string]*mercadopago.Payment
	paymentErr error
	block      bool
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{
		preference: &mercadopago.Preference{
			ID:               "pref_1",
			InitPoint:        "https://www.mercadopago.com/checkout/pref_1",
			SandboxInitPoint: "https://sandbox.mercadopago.com/checkout/pref_1",
		},
		payments: map[string]*mercadopago.Payment{},
	}
}

func (m *mockProcessor) CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences = append(m.preferences, req)
	if m.prefErr != nil {
		return nil, m.prefErr
	}
	return m.preference, nil
}

func (m *mockProcessor) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	m.mu.Lock()
	m.lookups++
	block := m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.paymentErr != nil {
		return nil, m.paymentErr
	}
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, &mercadopago.APIError{StatusCode: 404, Message: "Payment not found"}
	}
	return p, nil
}

func (m *mockProcessor) preferenceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.preferences)
}

func (m *mockProcessor) lookupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// mockOrderStore is an in-memory order.Store
type mockOrderStore struct {
	mu      sync.Mutex
	records map[string]order.PurchaseRecord
	err     error
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{records: map[string]order.PurchaseRecord{}}
}

func (m *mockOrderStore) Create(ctx context.Context, record *order.PurchaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.records[record.PurchaseID]; ok {
		return &order.DuplicateOrderError{PurchaseID: record.PurchaseID}
	}
	m.records[record.PurchaseID] = *record
	return nil
}

func (m *mockOrderStore) Get(ctx context.Context, purchaseID string) (*order.PurchaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[purchaseID]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &record, nil
}

func (m *mockOrderStore) ListByUser(ctx context.Context, userID string) ([]order.PurchaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.PurchaseRecord
	for _, record := range m.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseID < out[j].PurchaseID })
	return out, nil
}

func (m *mockOrderStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// mockCartStore is an in-memory cart.Store
type mockCartStore struct {
	mu       sync.Mutex
	carts    map[string][]cart.CartItem
	clears   int
	clearErr error
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: map[string][]cart.CartItem{}}
}

func (m *mockCartStore) Get(ctx context.Context, userID string) ([]cart.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cart.CartItem(nil), m.carts[userID]...), nil
}

func (m *mockCartStore) Add(ctx context.Context, userID string, item cart.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = append(m.carts[userID], item)
	return nil
}

func (m *mockCartStore) Update(ctx context.Context, userID, productID string, quantity int) error {
	return errors.New("not implemented")
}

func (m *mockCartStore) Remove(ctx context.Context, userID, productID string) error {
	return errors.New("not implemented")
}

func (m *mockCartStore) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.clears++
	delete(m.carts, userID)
	return nil
}

func (m *mockCartStore) items(userID string) []cart.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID]
}

func (m *mockCartStore) clearCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}
