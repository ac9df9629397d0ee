package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shelfapi/shelf/internal/model"
)

const (
	// tokenCachePrefix is the Redis key prefix for verified access tokens.
	tokenCachePrefix = "auth:token:"
	// tokenCacheTTL is the maximum time-to-live for cached access tokens.
	tokenCacheTTL = 5 * time.Minute
)

// CachedAccessToken represents an access token stored in Redis.
type CachedAccessToken struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetAccessToken retrieves a cached access token by ID.
// Returns nil if not found (cache miss).
func (c *Cache) GetAccessToken(ctx context.Context, id string) (*model.AccessToken, error) {
	data, err := c.client.Get(ctx, c.key(tokenCachePrefix+id)).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedAccessToken
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AccessToken{
		ID:        cached.ID,
		UserID:    cached.UserID,
		Name:      cached.Name,
		CreatedAt: cached.CreatedAt,
		ExpiresAt: cached.ExpiresAt,
	}, nil
}

// SetAccessToken caches an active access token.
// The entry never outlives the token itself.
func (c *Cache) SetAccessToken(ctx context.Context, token *model.AccessToken) error {
	ttl := tokenTTL(token.ExpiresAt, time.Now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(CachedAccessToken{
		ID:        token.ID,
		UserID:    token.UserID,
		Name:      token.Name,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal access token: %w", err)
	}

	return c.client.Set(ctx, c.key(tokenCachePrefix+token.ID), data, ttl).Err()
}

// DeleteAccessToken removes a cached access token.
// Used when a token is revoked.
func (c *Cache) DeleteAccessToken(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(tokenCachePrefix+id)).Err()
}

// tokenTTL caps the cache TTL at the token's remaining lifetime.
func tokenTTL(expiresAt, now time.Time) time.Duration {
	remaining := expiresAt.Sub(now)
	if remaining < tokenCacheTTL {
		return remaining
	}
	return tokenCacheTTL
}
