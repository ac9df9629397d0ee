package memstore

import (
	"context"
	"sync"

	"github.com/shelfapi/shelf/internal/cache"
	"github.com/shelfapi/shelf/internal/model"
)

// ProductCache is an in-memory product cache with negative entries.
type ProductCache struct {
	mu       sync.Mutex
	products map[int64]*model.Product
	negative map[int64]bool
}

// NewProductCache creates an empty ProductCache.
func NewProductCache() *ProductCache {
	return &ProductCache{
		products: make(map[int64]*model.Product),
		negative: make(map[int64]bool),
	}
}

// GetProduct returns a cached product or cache.ErrCacheMiss.
func (c *ProductCache) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *p
	return &cp, nil
}

// SetProduct caches a product unless its ID is marked missing.
func (c *ProductCache) SetProduct(_ context.Context, product *model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.negative[product.ID] {
		return nil
	}
	cp := *product
	c.products[product.ID] = &cp
	return nil
}

// DeleteProduct drops both positive and negative entries.
func (c *ProductCache) DeleteProduct(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.products, id)
	delete(c.negative, id)
	return nil
}

// IsNegativelyCached reports whether id is cached as missing.
func (c *ProductCache) IsNegativelyCached(_ context.Context, id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negative[id], nil
}

// SetNegativeCache marks id as missing.
func (c *ProductCache) SetNegativeCache(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[id] = true
	return nil
}

// TombstoneProduct drops a product and marks its ID missing.
func (c *ProductCache) TombstoneProduct(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
	c.negative[id] = true
	return nil
}

// Has reports whether a positive entry exists for id.
func (c *ProductCache) Has(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.products[id]
	return ok
}
