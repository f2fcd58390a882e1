package cart

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/kraalworks/storefront-api/internal/catalog"
)

type memStore struct {
	carts map[string]*Cart
}

func newMemStore() *memStore {
	return &memStore{carts: map[string]*Cart{}}
}

func (m *memStore) GetOrCreate(_ context.Context, key string) (Cart, error) {
	c, ok := m.carts[key]
	if !ok {
		c = &Cart{ID: uuid.New(), Key: key, Promos: []string{}}
		m.carts[key] = c
	}
	out := *c
	out.Items = append([]Item(nil), c.Items...)
	out.Promos = append([]string(nil), c.Promos...)
	return out, nil
}

func (m *memStore) byID(cartID uuid.UUID) *Cart {
	for _, c := range m.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *memStore) UpsertItem(_ context.Context, cartID, productID uuid.UUID, qty int) error {
	c := m.byID(cartID)
	if c == nil {
		return errors.New("no cart")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Qty = qty
			return nil
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Qty: qty})
	return nil
}

func (m *memStore) RemoveItem(_ context.Context, cartID, productID uuid.UUID) error {
	c := m.byID(cartID)
	if c == nil {
		return errors.New("no cart")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) SetPromos(_ context.Context, cartID uuid.UUID, promos []string) error {
	c := m.byID(cartID)
	if c == nil {
		return errors.New("no cart")
	}
	c.Promos = promos
	return nil
}

type memCatalog struct {
	products map[string]catalog.Product
}

func (m *memCatalog) BySKU(_ context.Context, sku string) (catalog.Product, error) {
	p, ok := m.products[sku]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (m *memCatalog) ByID(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func newService() (*Service, *memCatalog) {
	cat := &memCatalog{products: map[string]catalog.Product{
		"TEA-001": {ID: uuid.New(), SKU: "TEA-001", Name: "Rooibos Tea", Price: 4500, Stock: 10},
		"MUG-001": {ID: uuid.New(), SKU: "MUG-001", Name: "Enamel Mug", Price: 9900, Stock: 2},
	}}
	return &Service{Store: newMemStore(), Catalog: cat}, cat
}

func TestAddItemAccumulates(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "k1", "TEA-001", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := svc.AddItem(ctx, "k1", "TEA-001", 3)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Qty != 5 {
		t.Fatalf("unexpected items %+v", c.Items)
	}
}

func TestAddItemRejectsOverStock(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "k1", "MUG-001", 3)
	var stockErr *StockLimitError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockLimitError, got %v", err)
	}
	if stockErr.Available != 2 {
		t.Fatalf("available = %d, want 2", stockErr.Available)
	}
}

func TestAddNegativeQtyRemovesEntry(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "k1", "TEA-001", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := svc.AddItem(ctx, "k1", "TEA-001", -2)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", c.Items)
	}
}

func TestSetQtyRequiresExistingItem(t *testing.T) {
	svc, _ := newService()
	_, err := svc.SetQty(context.Background(), "k1", "TEA-001", 1)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestSetQtyZeroRemoves(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "k1", "TEA-001", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	c, err := svc.SetQty(ctx, "k1", "TEA-001", 0)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("expected removal, got %+v", c.Items)
	}
}

func TestApplyPromoNormalizesAndDedupes(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.ApplyPromo(ctx, "k1", " welcome10 "); err != nil {
		t.Fatalf("apply: %v", err)
	}
	c, err := svc.ApplyPromo(ctx, "k1", "WELCOME10")
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if !reflect.DeepEqual(c.Promos, []string{"WELCOME10"}) {
		t.Fatalf("promos = %v", c.Promos)
	}
}

func TestLinesSkipMissingProducts(t *testing.T) {
	svc, cat := newService()
	ctx := context.Background()
	c, err := svc.AddItem(ctx, "k1", "TEA-001", 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	delete(cat.products, "TEA-001")
	lines, err := svc.Lines(ctx, c)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected orphan entry skipped, got %+v", lines)
	}
}

func TestLinesRecomputeFromCurrentPrice(t *testing.T) {
	svc, cat := newService()
	ctx := context.Background()
	c, err := svc.AddItem(ctx, "k1", "TEA-001", 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	p := cat.products["TEA-001"]
	p.Price = 5000
	cat.products["TEA-001"] = p
	lines, err := svc.Lines(ctx, c)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 || lines[0].UnitPrice != 5000 || lines[0].LineTotal != 10000 {
		t.Fatalf("line not repriced: %+v", lines)
	}
}
