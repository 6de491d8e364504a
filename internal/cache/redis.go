package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// snapshotTTL bounds how stale a cached cart can get if an external
	// writer (the order-completed poller on another instance) changes
	// the snapshot underneath this process.
	snapshotTTL  = 15 * time.Minute
	ttlJitterMax = 5 * time.Minute

	keyPrefix = "storefront:cart:"
)

// RedisCache holds decoded carts keyed per user, in front of the
// snapshot repository.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cacheKey(userID), payload, cartTTL()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// cartTTL jitters expirations so a burst of loads cannot stampede the
// snapshot repository when they all lapse together.
func cartTTL() time.Duration {
	return snapshotTTL + time.Duration(rand.Int63n(int64(ttlJitterMax)))
}

func cacheKey(userID string) string {
	return keyPrefix + userID
}
