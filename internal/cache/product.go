package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/shelfapi/shelf/internal/model"
)

// Cache key prefixes and TTLs.
const (
	productKeyPrefix  = "product:"
	negCacheKeySuffix = ":neg"

	// DefaultProductTTL is the TTL for cached product data.
	DefaultProductTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 1 * time.Minute
)

// setProductScript writes the product hash unless the ID is marked missing.
// KEYS[1] = product hash, KEYS[2] = negative entry. ARGV[1] = TTL in seconds,
// then field/value pairs.
var setProductScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[2]) == 1 then
		return 0
	end
	redis.call("DEL", KEYS[1])
	redis.call("HSET", KEYS[1], unpack(ARGV, 2))
	redis.call("EXPIRE", KEYS[1], ARGV[1])
	return 1
`)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// productKey is the hash holding a cached product. The negative entry appends negCacheKeySuffix.
func (c *Cache) productKey(id int64) string {
	return c.key(productKeyPrefix + strconv.FormatInt(id, 10))
}

// GetProduct retrieves a product from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	result, err := c.client.HGetAll(ctx, c.productKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	product, err := productFromFields(result)
	if err != nil {
		// Corrupted entry - treat as miss
		return nil, ErrCacheMiss
	}

	return product, nil
}

// SetProduct stores a product in cache. It is a no-op while the ID has a
// negative entry, so a read racing a delete cannot resurrect the product.
func (c *Cache) SetProduct(ctx context.Context, product *model.Product) error {
	key := c.productKey(product.ID)

	fields := productFields(product)
	args := make([]any, 0, 1+2*len(fields))
	args = append(args, int(DefaultProductTTL.Seconds()))
	for k, v := range fields {
		args = append(args, k, v)
	}

	if err := setProductScript.Run(ctx, c.client, []string{key, key + negCacheKeySuffix}, args...).Err(); err != nil {
		return fmt.Errorf("failed to cache product: %w", err)
	}

	return nil
}

// DeleteProduct removes a product from cache.
func (c *Cache) DeleteProduct(ctx context.Context, id int64) error {
	key := c.productKey(id)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete product from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a product ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id int64) (bool, error) {
	exists, err := c.client.Exists(ctx, c.productKey(id)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a product ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id int64) error {
	err := c.client.SetEx(ctx, c.productKey(id)+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}

// TombstoneProduct drops a deleted product and marks its ID missing for as
// long as a cached copy could live.
func (c *Cache) TombstoneProduct(ctx context.Context, id int64) error {
	key := c.productKey(id)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SetEx(ctx, key+negCacheKeySuffix, "", DefaultProductTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to tombstone product: %w", err)
	}

	return nil
}

// productFields flattens a product into Redis hash fields.
// Optional fields are omitted when unset.
func productFields(p *model.Product) map[string]any {
	fields := map[string]any{
		"id":          strconv.FormatInt(p.ID, 10),
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.String(),
		"created_at":  p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":  p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.UserID != nil {
		fields["user_id"] = strconv.FormatInt(*p.UserID, 10)
	}
	if p.Image != nil {
		fields["image"] = *p.Image
	}
	return fields
}

// productFromFields rebuilds a product from Redis hash fields.
func productFromFields(fields map[string]string) (*model.Product, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	price, err := decimal.NewFromString(fields["price"])
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	p := &model.Product{
		ID:          id,
		Name:        fields["name"],
		Description: fields["description"],
		Price:       price,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}

	if raw, ok := fields["user_id"]; ok {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse user_id: %w", err)
		}
		p.UserID = &userID
	}
	if image, ok := fields["image"]; ok {
		p.Image = &image
	}

	return p, nil
}
