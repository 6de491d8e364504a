// Package cache is the read path in front of the snapshot repository:
// decoded carts keyed per user, refreshed on every load and mutation.
package cache

import (
	"context"
	"errors"

	"github.com/kleankickx/storefront-api/internal/domain"
)

// CartCache is what the cart store requires of its read cache. A miss
// is reported as ErrCacheMiss; any other error is a degraded cache the
// store logs and works around.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
