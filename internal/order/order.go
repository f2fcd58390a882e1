// Package order defines the immutable purchase ledger. Orders are written
// once by checkout and never updated or deleted; their line items are frozen
// copies of what was charged, unaffected by later catalog changes.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kraalworks/storefront-api/internal/money"
)

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is the financial summary of a completed purchase. SubtotalExTax is
// the discounted total excluding tax.
type Order struct {
	ID            uuid.UUID   `json:"id"`
	CreatedAt     time.Time   `json:"createdAt"`
	SubtotalExTax money.Money `json:"subtotalExTax"`
	Discount      money.Money `json:"discount"`
	Tax           money.Money `json:"tax"`
	Shipping      money.Money `json:"shipping"`
	GrandTotal    money.Money `json:"grandTotal"`
	Promos        []string    `json:"promos"`
	Items         []LineItem  `json:"items,omitempty"`
}

// LineItem is a frozen snapshot of one charged line.
type LineItem struct {
	ProductID uuid.UUID   `json:"productId"`
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unitPrice"`
	Qty       int         `json:"qty"`
	LineTotal money.Money `json:"lineTotal"`
}

// Store reads the order ledger.
type Store struct {
	Pool *pgxpool.Pool
}

// ByID loads an order with its line items.
func (s *Store) ByID(ctx context.Context, id uuid.UUID) (Order, error) {
	var o Order
	row := s.Pool.QueryRow(ctx, `
		SELECT id, created_at, subtotal_ex_tax_cents, discount_cents, tax_cents,
		       shipping_cents, grand_total_cents, promo_codes
		FROM orders WHERE id = $1`, id)
	err := row.Scan(&o.ID, &o.CreatedAt, &o.SubtotalExTax, &o.Discount, &o.Tax,
		&o.Shipping, &o.GrandTotal, &o.Promos)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("load order: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT product_id, sku, name, unit_price_cents, qty, line_total_cents
		FROM order_items WHERE order_id = $1 ORDER BY sku`, id)
	if err != nil {
		return Order{}, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.UnitPrice, &it.Qty, &it.LineTotal); err != nil {
			return Order{}, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}
