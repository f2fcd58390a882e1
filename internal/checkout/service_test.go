package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraalworks/storefront-api/internal/cart"
	"github.com/kraalworks/storefront-api/internal/catalog"
	"github.com/kraalworks/storefront-api/internal/order"
	"github.com/kraalworks/storefront-api/internal/pricing"
)

// memStore emulates the transactional store: each WithinTx call holds an
// exclusive lock for its whole duration, mirroring the row locks the real
// store takes, and writes are staged until fn returns nil.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
	carts    map[string]cart.Cart
	orders   map[uuid.UUID]order.Order
	items    map[uuid.UUID][]order.LineItem
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uuid.UUID]catalog.Product{},
		carts:    map[string]cart.Cart{},
		orders:   map[uuid.UUID]order.Order{},
		items:    map[uuid.UUID][]order.LineItem{},
	}
}

func (m *memStore) WithinTx(_ context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	store   *memStore
	pending []func()
}

func (t *memTx) commit() {
	for _, apply := range t.pending {
		apply()
	}
}

func (t *memTx) CartByKey(_ context.Context, key string) (cart.Cart, error) {
	c, ok := t.store.carts[key]
	if !ok {
		return cart.Cart{Key: key, Promos: []string{}}, nil
	}
	out := c
	out.Items = append([]cart.Item(nil), c.Items...)
	out.Promos = append([]string(nil), c.Promos...)
	return out, nil
}

func (t *memTx) ProductForUpdate(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := t.store.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (t *memTx) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	t.pending = append(t.pending, func() {
		p := t.store.products[id]
		p.Stock -= qty
		if p.Stock < 0 {
			p.Stock = 0
		}
		t.store.products[id] = p
	})
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o order.Order, items []order.LineItem) (uuid.UUID, error) {
	id := uuid.New()
	t.pending = append(t.pending, func() {
		o.ID = id
		t.store.orders[id] = o
		t.store.items[id] = items
	})
	return id, nil
}

func (t *memTx) ClearCart(_ context.Context, cartID uuid.UUID) error {
	t.pending = append(t.pending, func() {
		for key, c := range t.store.carts {
			if c.ID == cartID {
				c.Items = nil
				c.Promos = []string{}
				t.store.carts[key] = c
			}
		}
	})
	return nil
}

func testPolicy() pricing.Policy {
	return pricing.Policy{
		TaxRateBps:            1500,
		ShippingFlat:          6000,
		FreeShippingThreshold: 50000,
	}
}

func seed(store *memStore, sku string, price int64, stock int) uuid.UUID {
	id := uuid.New()
	store.products[id] = catalog.Product{ID: id, SKU: sku, Name: sku, Price: price, Stock: stock}
	return id
}

func putCart(store *memStore, key string, promos []string, items ...cart.Item) {
	store.carts[key] = cart.Cart{ID: uuid.New(), Key: key, Items: items, Promos: promos}
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store, Policy: testPolicy()}

	_, err := svc.Checkout(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, store.orders)
}

func TestCheckoutUnresolvableItemsCountAsEmpty(t *testing.T) {
	store := newMemStore()
	putCart(store, "k1", nil, cart.Item{ProductID: uuid.New(), Qty: 2})
	svc := &Service{Store: store, Policy: testPolicy()}

	_, err := svc.Checkout(context.Background(), "k1")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutInsufficientStockLeavesStateUntouched(t *testing.T) {
	store := newMemStore()
	teaID := seed(store, "TEA-001", 4500, 10)
	mugID := seed(store, "MUG-001", 9900, 1)
	putCart(store, "k1", nil,
		cart.Item{ProductID: teaID, Qty: 2},
		cart.Item{ProductID: mugID, Qty: 3},
	)
	svc := &Service{Store: store, Policy: testPolicy()}

	_, err := svc.Checkout(context.Background(), "k1")
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "MUG-001", stockErr.SKU)
	assert.Equal(t, 1, stockErr.Available)

	assert.Equal(t, 10, store.products[teaID].Stock, "no partial decrement")
	assert.Equal(t, 1, store.products[mugID].Stock)
	assert.Empty(t, store.orders, "no order created")
	assert.Len(t, store.carts["k1"].Items, 2, "cart untouched")
}

func TestCheckoutSuccess(t *testing.T) {
	store := newMemStore()
	teaID := seed(store, "TEA-001", 4500, 10)
	mugID := seed(store, "MUG-001", 9900, 5)
	putCart(store, "k1", []string{"WELCOME10"},
		cart.Item{ProductID: mugID, Qty: 1},
		cart.Item{ProductID: teaID, Qty: 2},
	)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := &Service{Store: store, Policy: testPolicy(), Now: func() time.Time { return fixed }}

	receipt, err := svc.Checkout(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, fixed, receipt.CreatedAt)

	// 2x4500 + 1x9900 = 18900; WELCOME10 -> -1890; tax 15% of 17010 = 2552
	// (rounded half away from zero); shipping flat 6000.
	b := receipt.Breakdown
	assert.EqualValues(t, 18900, b.Subtotal)
	assert.EqualValues(t, 1890, b.Discount)
	assert.EqualValues(t, 2552, b.Tax)
	assert.EqualValues(t, 6000, b.Shipping)
	assert.EqualValues(t, 17010+2552+6000, b.GrandTotal)

	assert.Equal(t, 8, store.products[teaID].Stock)
	assert.Equal(t, 4, store.products[mugID].Stock)
	assert.Empty(t, store.carts["k1"].Items, "cart cleared")
	assert.Empty(t, store.carts["k1"].Promos)

	require.Len(t, store.orders, 1)
	o := store.orders[receipt.OrderID]
	assert.Equal(t, b.GrandTotal, o.GrandTotal)
	assert.Equal(t, []string{"WELCOME10"}, o.Promos)

	items := store.items[receipt.OrderID]
	require.Len(t, items, 2)
	assert.Equal(t, "MUG-001", items[0].SKU, "line items ordered by sku")
	assert.Equal(t, "TEA-001", items[1].SKU)
	var lineSum int64
	for _, it := range items {
		assert.Equal(t, it.UnitPrice*int64(it.Qty), it.LineTotal)
		lineSum += it.LineTotal
	}
	assert.Equal(t, b.Subtotal, lineSum)
}

func TestCheckoutFreezesLineItemsAgainstLaterPriceChanges(t *testing.T) {
	store := newMemStore()
	teaID := seed(store, "TEA-001", 4500, 10)
	putCart(store, "k1", nil, cart.Item{ProductID: teaID, Qty: 1})
	svc := &Service{Store: store, Policy: testPolicy()}

	receipt, err := svc.Checkout(context.Background(), "k1")
	require.NoError(t, err)

	p := store.products[teaID]
	p.Price = 9999
	store.products[teaID] = p

	items := store.items[receipt.OrderID]
	require.Len(t, items, 1)
	assert.EqualValues(t, 4500, items[0].UnitPrice)
}

func TestConcurrentCheckoutsLastUnit(t *testing.T) {
	store := newMemStore()
	prodID := seed(store, "MUG-001", 9900, 1)
	putCart(store, "a", nil, cart.Item{ProductID: prodID, Qty: 1})
	putCart(store, "b", nil, cart.Item{ProductID: prodID, Qty: 1})
	svc := &Service{Store: store, Policy: testPolicy()}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, key := range []string{"a", "b"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), k)
			results <- err
		}(key)
	}
	wg.Wait()
	close(results)

	var succeeded, outOfStock int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *StockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 0, stockErr.Available)
		outOfStock++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, 0, store.products[prodID].Stock)
	assert.Len(t, store.orders, 1)
}
