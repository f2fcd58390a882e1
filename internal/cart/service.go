package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kraalworks/storefront-api/internal/catalog"
	"github.com/kraalworks/storefront-api/internal/pricing"
	"github.com/kraalworks/storefront-api/internal/promo"

	"github.com/google/uuid"
)

// Catalog is the narrow product lookup the cart depends on.
type Catalog interface {
	BySKU(ctx context.Context, sku string) (catalog.Product, error)
	ByID(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Store   Store
	Catalog Catalog
}

// Get loads or creates the cart for the given key.
func (s *Service) Get(ctx context.Context, key string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if key == "" {
		return Cart{}, fmt.Errorf("cart key is required: %w", ErrInvalidInput)
	}
	return s.Store.GetOrCreate(ctx, key)
}

// AddItem adds qty to the product's current quantity. A negative qty
// decrements; when the combined quantity drops to zero or below the entry is
// removed. The combined quantity may not exceed current stock.
func (s *Service) AddItem(ctx context.Context, key, sku string, qty int) (Cart, error) {
	c, err := s.Get(ctx, key)
	if err != nil {
		return Cart{}, err
	}
	product, err := s.Catalog.BySKU(ctx, sku)
	if err != nil {
		return Cart{}, err
	}
	current := 0
	for _, it := range c.Items {
		if it.ProductID == product.ID {
			current = it.Qty
			break
		}
	}
	return s.setQty(ctx, c, product, current+qty)
}

// SetQty replaces the product's quantity. Zero or negative removes the entry;
// the product must already be in the cart.
func (s *Service) SetQty(ctx context.Context, key, sku string, qty int) (Cart, error) {
	c, err := s.Get(ctx, key)
	if err != nil {
		return Cart{}, err
	}
	product, err := s.Catalog.BySKU(ctx, sku)
	if err != nil {
		return Cart{}, err
	}
	found := false
	for _, it := range c.Items {
		if it.ProductID == product.ID {
			found = true
			break
		}
	}
	if !found {
		return Cart{}, ErrItemNotFound
	}
	return s.setQty(ctx, c, product, qty)
}

func (s *Service) setQty(ctx context.Context, c Cart, product catalog.Product, qty int) (Cart, error) {
	if qty <= 0 {
		if err := s.Store.RemoveItem(ctx, c.ID, product.ID); err != nil {
			return Cart{}, err
		}
		return s.Store.GetOrCreate(ctx, c.Key)
	}
	if qty > product.Stock {
		return Cart{}, &StockLimitError{SKU: product.SKU, Available: product.Stock}
	}
	if err := s.Store.UpsertItem(ctx, c.ID, product.ID, qty); err != nil {
		return Cart{}, err
	}
	return s.Store.GetOrCreate(ctx, c.Key)
}

// ApplyPromo normalizes and adds a promo code to the cart's set. Unknown codes
// are stored but inert.
func (s *Service) ApplyPromo(ctx context.Context, key, code string) (Cart, error) {
	c, err := s.Get(ctx, key)
	if err != nil {
		return Cart{}, err
	}
	merged := promo.Normalize(append(append([]string{}, c.Promos...), code))
	if len(merged) == len(c.Promos) {
		// nothing new; code was empty or already applied
		return c, nil
	}
	if err := s.Store.SetPromos(ctx, c.ID, merged); err != nil {
		return Cart{}, err
	}
	return s.Store.GetOrCreate(ctx, c.Key)
}

// Lines resolves cart entries against the current catalog. Entries whose
// product no longer exists are skipped; line totals are always recomputed from
// the catalog price at call time, never cached.
func (s *Service) Lines(ctx context.Context, c Cart) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		product, err := s.Catalog.ByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, err
		}
		lines = append(lines, pricing.NewLine(product.ID.String(), product.SKU, product.Name, product.Price, it.Qty))
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].SKU < lines[j].SKU })
	return lines, nil
}
