package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kraalworks/storefront-api/internal/cart"
	"github.com/kraalworks/storefront-api/internal/catalog"
	"github.com/kraalworks/storefront-api/internal/order"
)

// PGStore runs checkout units of work on Postgres. Stock is re-checked under
// a SELECT ... FOR UPDATE row lock, so two checkouts competing for the same
// product serialize and the loser sees the decremented stock.
type PGStore struct {
	Pool *pgxpool.Pool
}

// WithinTx runs fn inside a read-committed transaction; the row locks taken
// by ProductForUpdate are what give checkout its atomicity, not a stronger
// isolation level.
func (s *PGStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) CartByKey(ctx context.Context, key string) (cart.Cart, error) {
	var c cart.Cart
	row := t.tx.QueryRow(ctx, `SELECT id, cart_key, promo_codes FROM carts WHERE cart_key = $1`, key)
	if err := row.Scan(&c.ID, &c.Key, &c.Promos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Never-touched cart key checks out as an empty cart.
			return cart.Cart{Key: key, Promos: []string{}}, nil
		}
		return cart.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	rows, err := t.tx.Query(ctx, `
		SELECT product_id, qty FROM cart_items
		WHERE cart_id = $1 ORDER BY product_id`, c.ID)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
			return cart.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (t *pgTx) ProductForUpdate(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	var p catalog.Product
	row := t.tx.QueryRow(ctx, `
		SELECT id, sku, name, price_cents, stock, categories
		FROM products WHERE id = $1 FOR UPDATE`, id)
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.Categories)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrNotFound
		}
		return catalog.Product{}, fmt.Errorf("lock product: %w", err)
	}
	return p, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = GREATEST(stock - $2, 0) WHERE id = $1`, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o order.Order, items []order.LineItem) (uuid.UUID, error) {
	var id uuid.UUID
	row := t.tx.QueryRow(ctx, `
		INSERT INTO orders (created_at, subtotal_ex_tax_cents, discount_cents,
			tax_cents, shipping_cents, grand_total_cents, promo_codes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		o.CreatedAt, o.SubtotalExTax, o.Discount, o.Tax, o.Shipping, o.GrandTotal, o.Promos)
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("insert order: %w", err)
	}
	for _, it := range items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, sku, name, unit_price_cents, qty, line_total_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, it.ProductID, it.SKU, it.Name, it.UnitPrice, it.Qty, it.LineTotal)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert order item %s: %w", it.SKU, err)
		}
	}
	return id, nil
}

func (t *pgTx) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if cartID == uuid.Nil {
		return nil
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	if _, err := t.tx.Exec(ctx, `UPDATE carts SET promo_codes = '{}' WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("reset cart promos: %w", err)
	}
	return nil
}
