package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence boundary the service talks to.
type Store interface {
	// GetOrCreate loads the cart for key, creating an empty one on first use.
	GetOrCreate(ctx context.Context, key string) (Cart, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	SetPromos(ctx context.Context, cartID uuid.UUID, promos []string) error
}

// PGStore implements Store on a pgx pool.
type PGStore struct {
	Pool *pgxpool.Pool
}

// GetOrCreate upserts the cart row and loads its items in one round trip each.
func (s *PGStore) GetOrCreate(ctx context.Context, key string) (Cart, error) {
	var c Cart
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO carts (cart_key) VALUES ($1)
		ON CONFLICT (cart_key) DO UPDATE SET updated_at = now()
		RETURNING id, cart_key, promo_codes`, key)
	if err := row.Scan(&c.ID, &c.Key, &c.Promos); err != nil {
		return Cart{}, fmt.Errorf("get or create cart: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT ci.product_id, ci.qty
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.sku`, c.ID)
	if err != nil {
		return Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
			return Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

// UpsertItem inserts or replaces the quantity for a product.
func (s *PGStore) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, qty) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET qty = EXCLUDED.qty`,
		cartID, productID, qty)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// RemoveItem deletes the product's entry if present.
func (s *PGStore) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// SetPromos replaces the cart's promo code set.
func (s *PGStore) SetPromos(ctx context.Context, cartID uuid.UUID, promos []string) error {
	if promos == nil {
		promos = []string{}
	}
	_, err := s.Pool.Exec(ctx, `UPDATE carts SET promo_codes = $2, updated_at = now() WHERE id = $1`, cartID, promos)
	if err != nil {
		return fmt.Errorf("set cart promos: %w", err)
	}
	return nil
}
