package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"velo-routes-builder/internal/adapters/cache"
	"velo-routes-builder/internal/adapters/rwgps"
	"velo-routes-builder/internal/config"
	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/platform/db"
	"velo-routes-builder/internal/platform/obs"
	"velo-routes-builder/internal/ports"
	"velo-routes-builder/internal/services"
	"velo-routes-builder/internal/site"
)

// main is the build composition root: it wires a cache backend and the
// RideWithGPS fetcher behind their ports, acquires the route collection, and
// writes the static site.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	ridesPath := config.Get("RIDES_FILE", "rides.txt")
	cacheDir := config.Get("CACHE_DIR", "routes")
	distDir := config.Get("DIST_DIR", "dist")
	templatePath := config.Get("TEMPLATE_PATH", "templates/index.template.html")
	imagesDir := config.Get("IMAGES_DIR", "images")
	sitePath := config.Get("SITE_CONFIG", "site.yml")

	siteCfg, err := config.LoadSite(sitePath)
	if err != nil {
		log.Fatal(err)
	}

	refs, err := loadReferences(ridesPath)
	if err != nil {
		log.Fatal(err)
	}
	if len(refs) == 0 {
		log.Fatalf("no route references in %s", ridesPath)
	}

	routeCache, cleanup, err := selectCache(cacheDir)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	client := rwgps.NewClient(siteCfg.Host)

	// Interrupts stop new requests; in-flight ones finish or time out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = obs.WithRunID(ctx, uuid.NewString())

	log.Printf("building site routes=%d cache=%s", len(refs), cacheDir)

	routes := services.Acquire(ctx, refs, routeCache, client, services.AcquireOptions{
		Workers: siteCfg.Workers,
	})
	if len(routes) == 0 {
		log.Fatal("no routes could be acquired")
	}

	if siteCfg.FetchImages {
		localizeImages(ctx, client, routes, distDir)
	}

	renderer := &site.Renderer{
		Dist:      distDir,
		SiteTitle: siteCfg.Title,
		CNAME:     siteCfg.CNAME,
	}
	if err := renderer.Render(templatePath, routes); err != nil {
		log.Fatal(err)
	}
	if err := renderer.CopyAssets(imagesDir); err != nil {
		log.Fatal(err)
	}

	log.Printf("build complete routes=%d output=%s", len(routes), distDir)
}

func loadReferences(path string) ([]domain.RouteReference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return services.LoadReferences(f)
}

// selectCache picks the cache backend from the environment: a shared
// postgres cache when DATABASE_URL is set, redis when REDIS_ADDR is set,
// otherwise per-route JSON files under cacheDir.
func selectCache(cacheDir string) (ports.RouteCache, func(), error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(context.Background(), pg); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return cache.NewPostgresRouteCache(pg), func() { pg.Close() }, nil
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		return cache.NewRedisRouteCache(client), func() { client.Close() }, nil
	}

	// An unusable cache location is the one hard failure of the
	// acquisition layer; surface it before any fetching starts.
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("cache dir %q: %w", cacheDir, err)
	}
	return cache.NewFileRouteCache(cacheDir), func() {}, nil
}

// localizeImages downloads each route's thumbnail into the site output and
// points the record at the local copy. Best effort: a failed download keeps
// the remote URL.
func localizeImages(ctx context.Context, client *rwgps.Client, routes []*domain.RouteRecord, distDir string) {
	for _, r := range routes {
		if ctx.Err() != nil {
			return
		}
		if r.Image == "" {
			continue
		}

		rel := filepath.Join("images", r.ID+".jpg")
		if err := client.DownloadImage(ctx, r.Image, filepath.Join(distDir, rel)); err != nil {
			log.Printf("warn: %s: image download failed: %v (keeping remote URL)", r.ID, err)
			continue
		}
		r.Image = rel
	}
}
