// Package catalog resolves cleaning services against the backend
// catalog, with a local sqlite read model as the degraded-mode answer.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/kleankickx/storefront-api/internal/domain"
	"golang.org/x/sync/singleflight"
)

var ErrServiceNotFound = errors.New("service not found")

type Resolver struct {
	client *backend.Client
	cache  *Cache
	sfg    singleflight.Group // Collapses concurrent lookups per service id
}

func NewResolver(client *backend.Client, cache *Cache) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache,
	}
}

// Resolve fetches a service from the backend, falling back to the local
// cache when the backend cannot answer. ErrServiceNotFound means neither
// source knows the id; callers render a zero-price placeholder.
func (r *Resolver) Resolve(ctx context.Context, id string) (*domain.Service, error) {
	v, err, _ := r.sfg.Do(id, func() (interface{}, error) {
		var svc domain.Service
		errGet := r.client.GetJSON(ctx, "/services/"+id, &svc)
		if errGet == nil {
			svc.ID = id
			if errPut := r.cache.Put(ctx, svc); errPut != nil {
				log.Printf("catalog cache put error for %s: %v", id, errPut)
			}
			return &svc, nil
		}

		if errors.Is(errGet, backend.ErrNotFound) {
			return nil, ErrServiceNotFound
		}

		// Backend unreachable, answer from the read model
		log.Printf("catalog lookup for %s degraded to cache: %v", id, errGet)
		cached, errCache := r.cache.Get(ctx, id)
		if errCache == nil {
			return cached, nil
		}
		if !errors.Is(errCache, ErrNotCached) {
			log.Printf("catalog cache get error for %s: %v", id, errCache)
		}

		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Service), nil
}

// ResolveAll resolves a set of ids best-effort. Unresolvable services
// are simply absent from the result; the pricing composer prices those
// at zero and surfaces a warning, so the summary always renders.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string) map[string]domain.Service {
	out := make(map[string]domain.Service, len(ids))
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		svc, err := r.Resolve(ctx, id)
		if err != nil {
			continue
		}
		out[id] = *svc
	}
	return out
}
