// Package catalog exposes the read side of the product catalog and the stock
// mutation used by checkout. Prices and stock are authoritative only at the
// instant they are read.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kraalworks/storefront-api/internal/money"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. Price is tax-exclusive, in cents.
type Product struct {
	ID         uuid.UUID   `json:"id"`
	SKU        string      `json:"sku"`
	Name       string      `json:"name"`
	Price      money.Money `json:"price"`
	Stock      int         `json:"stock"`
	Categories []string    `json:"categories"`
}

// Store reads and mutates products through a pgx pool.
type Store struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, sku, name, price_cents, stock, categories`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.Categories); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// List returns all products ordered by name.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, sku`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.Categories); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ByID fetches a single product by identifier.
func (s *Store) ByID(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// BySKU fetches a single product by its unique SKU.
func (s *Store) BySKU(ctx context.Context, sku string) (Product, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	return scanProduct(row)
}
