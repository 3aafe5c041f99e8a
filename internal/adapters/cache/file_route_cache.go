package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/ports"
)

// FileRouteCache stores one JSON document per route under a directory,
// keyed by filename "route-<id>.json". This is the default backend: the
// cache directory can live in the repository so repeated builds (including
// CI) skip remote fetches entirely.
type FileRouteCache struct {
	Dir string
}

func NewFileRouteCache(dir string) *FileRouteCache {
	return &FileRouteCache{Dir: dir}
}

func (c *FileRouteCache) path(id string) string {
	return filepath.Join(c.Dir, domain.CacheKey(id)+".json")
}

// Get reads the cached record for id. A missing, unreadable, or malformed
// document is a miss; the entry will be re-fetched and overwritten.
func (c *FileRouteCache) Get(ctx context.Context, id string) (*domain.RouteRecord, error) {
	data, err := os.ReadFile(c.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		log.Printf("warn: route cache: read %s: %v (treating as miss)", c.path(id), err)
		return nil, ports.ErrCacheMiss
	}

	var record domain.RouteRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("warn: route cache: corrupt document %s: %v (treating as miss)", c.path(id), err)
		return nil, ports.ErrCacheMiss
	}

	return &record, nil
}

// Put writes the record for id, creating the cache directory if absent and
// overwriting any existing document.
func (c *FileRouteCache) Put(ctx context.Context, id string, record *domain.RouteRecord) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("route cache: create dir %q: %w", c.Dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("route cache: encode %s: %w", domain.CacheKey(id), err)
	}

	if err := os.WriteFile(c.path(id), data, 0o644); err != nil {
		return fmt.Errorf("route cache: write %s: %w", c.path(id), err)
	}

	return nil
}
