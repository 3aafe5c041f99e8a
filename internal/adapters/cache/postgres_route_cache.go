package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/ports"
)

// PostgresRouteCache stores route documents in a single jsonb-keyed table.
// Useful when several build hosts share one cache.
type PostgresRouteCache struct {
	DB *sql.DB
}

func NewPostgresRouteCache(db *sql.DB) *PostgresRouteCache {
	return &PostgresRouteCache{DB: db}
}

// InitSchema creates the cache table when it does not exist yet.
func InitSchema(ctx context.Context, db *sql.DB) error {
	const q = `
	CREATE TABLE IF NOT EXISTS route_cache (
		id  TEXT PRIMARY KEY,
		doc JSONB NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("route cache: init schema: %w", err)
	}
	return nil
}

func (c *PostgresRouteCache) Get(ctx context.Context, id string) (*domain.RouteRecord, error) {
	if c.DB == nil {
		return nil, errors.New("route cache: db is nil")
	}

	key := domain.CacheKey(id)

	var doc []byte
	err := c.DB.QueryRowContext(ctx,
		`SELECT doc FROM route_cache WHERE id = $1;`, key,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("route cache: query %s: %w", key, err)
	}

	var record domain.RouteRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		log.Printf("warn: route cache: corrupt row for %s: %v (treating as miss)", key, err)
		return nil, ports.ErrCacheMiss
	}

	return &record, nil
}

func (c *PostgresRouteCache) Put(ctx context.Context, id string, record *domain.RouteRecord) error {
	if c.DB == nil {
		return errors.New("route cache: db is nil")
	}

	key := domain.CacheKey(id)

	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("route cache: encode %s: %w", key, err)
	}

	_, err = c.DB.ExecContext(ctx, `
	INSERT INTO route_cache (id, doc)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE
	SET doc = EXCLUDED.doc;
	`, key, doc)
	if err != nil {
		return fmt.Errorf("route cache: upsert %s: %w", key, err)
	}

	return nil
}
