package catalog

import (
	"context"
	"errors"
	"strings"
)

type lister interface {
	List(ctx context.Context) ([]Product, error)
	BySKU(ctx context.Context, sku string) (Product, error)
}

// Service assembles catalog listings with filtering and caching.
type Service struct {
	store lister
	cache *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store lister
	Cache *Cache
}

// NewService validates dependencies and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{store: cfg.Store, cache: cfg.Cache}, nil
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query    string
	Category string
}

// List returns products matching the filters. The unfiltered listing is
// cached; filters are applied in memory on the cached snapshot.
func (s *Service) List(ctx context.Context, params ListParams) ([]Product, error) {
	var products []Product
	hit, err := s.cache.GetJSON(ctx, listCacheKey, &products)
	if err != nil || !hit {
		products, err = s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetJSON(ctx, listCacheKey, products)
	}
	return filterProducts(products, params), nil
}

// BySKU returns a single product, bypassing the cache so stock is current.
func (s *Service) BySKU(ctx context.Context, sku string) (Product, error) {
	return s.store.BySKU(ctx, strings.TrimSpace(sku))
}

func filterProducts(products []Product, params ListParams) []Product {
	q := strings.ToLower(strings.TrimSpace(params.Query))
	category := strings.ToLower(strings.TrimSpace(params.Category))
	if q == "" && category == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
			continue
		}
		if category != "" && !hasCategory(p, category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasCategory(p Product, category string) bool {
	for _, c := range p.Categories {
		if strings.ToLower(strings.TrimSpace(c)) == category {
			return true
		}
	}
	return false
}
