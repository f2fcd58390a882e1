// Package checkout converts a priced cart into an immutable order while
// decrementing stock, as a single all-or-nothing unit of work.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kraalworks/storefront-api/internal/cart"
	"github.com/kraalworks/storefront-api/internal/catalog"
	"github.com/kraalworks/storefront-api/internal/obs"
	"github.com/kraalworks/storefront-api/internal/order"
	"github.com/kraalworks/storefront-api/internal/pricing"
)

// ErrEmptyCart signals a checkout attempt with no resolvable line items. The
// caller treats it as a redirect back to browsing, not a server error.
var ErrEmptyCart = errors.New("cart is empty")

// StockError reports that a requested quantity exceeds current stock. The
// whole checkout aborts; no partial order or decrement happens.
type StockError struct {
	SKU       string
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (available %d)", e.SKU, e.Available)
}

// Tx is the unit-of-work surface the orchestrator drives. Every method runs
// inside the same transaction; ProductForUpdate must hold a lock on the row
// until commit so check-then-decrement is serialized per product.
type Tx interface {
	CartByKey(ctx context.Context, key string) (cart.Cart, error)
	ProductForUpdate(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
	InsertOrder(ctx context.Context, o order.Order, items []order.LineItem) (uuid.UUID, error)
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// Store opens units of work. If fn returns an error nothing persists.
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// Receipt is returned on success.
type Receipt struct {
	OrderID   uuid.UUID
	CreatedAt time.Time
	Breakdown pricing.Breakdown
}

// Service orchestrates checkout. It never retries internally; a failed
// checkout is surfaced to the caller, who may resubmit.
type Service struct {
	Store  Store
	Policy pricing.Policy
	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Checkout recomputes the breakdown from current catalog state, re-validates
// stock, writes the order with frozen line items, decrements stock, and
// empties the cart. All of it commits together or not at all.
func (s *Service) Checkout(ctx context.Context, cartKey string) (Receipt, error) {
	if s == nil || s.Store == nil {
		return Receipt{}, errors.New("checkout service not configured")
	}
	var receipt Receipt
	err := s.Store.WithinTx(ctx, func(tx Tx) error {
		c, err := tx.CartByKey(ctx, cartKey)
		if err != nil {
			return err
		}

		// Lock order follows the cart item order, which the store keeps
		// stable (by product id) so concurrent checkouts cannot deadlock.
		lines := make([]pricing.Line, 0, len(c.Items))
		for _, it := range c.Items {
			p, err := tx.ProductForUpdate(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					continue
				}
				return err
			}
			if it.Qty > p.Stock {
				return &StockError{SKU: p.SKU, Available: p.Stock}
			}
			lines = append(lines, pricing.NewLine(p.ID.String(), p.SKU, p.Name, p.Price, it.Qty))
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].SKU < lines[j].SKU })

		breakdown := pricing.Quote(lines, c.Promos, s.Policy)

		createdAt := s.now()
		items := make([]order.LineItem, 0, len(breakdown.Lines))
		for _, l := range breakdown.Lines {
			pid, err := uuid.Parse(l.ProductID)
			if err != nil {
				return fmt.Errorf("parse product id %q: %w", l.ProductID, err)
			}
			items = append(items, order.LineItem{
				ProductID: pid,
				SKU:       l.SKU,
				Name:      l.Name,
				UnitPrice: l.UnitPrice,
				Qty:       l.Qty,
				LineTotal: l.LineTotal,
			})
		}
		orderID, err := tx.InsertOrder(ctx, order.Order{
			CreatedAt:     createdAt,
			SubtotalExTax: breakdown.Subtotal - breakdown.Discount,
			Discount:      breakdown.Discount,
			Tax:           breakdown.Tax,
			Shipping:      breakdown.Shipping,
			GrandTotal:    breakdown.GrandTotal,
			Promos:        breakdown.Promos,
		}, items)
		if err != nil {
			return err
		}

		for _, it := range items {
			if err := tx.DecrementStock(ctx, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		if err := tx.ClearCart(ctx, c.ID); err != nil {
			return err
		}

		receipt = Receipt{OrderID: orderID, CreatedAt: createdAt, Breakdown: breakdown}
		return nil
	})
	if err != nil {
		s.observe(cartKey, err)
		return Receipt{}, err
	}
	s.observe(cartKey, nil)
	if obs.OrderValueCents != nil {
		obs.OrderValueCents.Observe(float64(receipt.Breakdown.GrandTotal))
	}
	s.Logger.Info().
		Str("cart_key", cartKey).
		Str("order_id", receipt.OrderID.String()).
		Int64("grand_total", receipt.Breakdown.GrandTotal).
		Strs("promos", receipt.Breakdown.Promos).
		Msg("checkout_completed")
	return receipt, nil
}

func (s *Service) observe(cartKey string, err error) {
	if obs.CheckoutTotal == nil {
		return
	}
	var stockErr *StockError
	switch {
	case err == nil:
		obs.CheckoutTotal.WithLabelValues("created").Inc()
	case errors.Is(err, ErrEmptyCart):
		obs.CheckoutTotal.WithLabelValues("empty_cart").Inc()
	case errors.As(err, &stockErr):
		obs.CheckoutTotal.WithLabelValues("insufficient_stock").Inc()
	default:
		obs.CheckoutTotal.WithLabelValues("error").Inc()
		s.Logger.Error().Err(err).Str("cart_key", cartKey).Msg("checkout_failed")
	}
}
