package ports

import (
	"context"
	"errors"

	"velo-routes-builder/internal/domain"
)

// ErrCacheMiss is returned by RouteCache.Get when no usable entry exists for
// an identifier. A corrupt or unreadable entry is reported as a miss, never
// as a fatal error; the caller re-fetches and overwrites it.
var ErrCacheMiss = errors.New("route cache miss")

// Contract for persisting normalized route records between builds.
//
// The cache is a durability/cost optimization, not a correctness mechanism:
// clearing the backing store is always safe and simply forces a full
// re-fetch. There is no eviction and no freshness check; staleness is the
// caller's responsibility. Put overwrites unconditionally.
type RouteCache interface {
	// Return the record stored under id, or ErrCacheMiss.
	Get(ctx context.Context, id string) (*domain.RouteRecord, error)
	// Store record under id, creating the backing location if absent.
	Put(ctx context.Context, id string, record *domain.RouteRecord) error
}
