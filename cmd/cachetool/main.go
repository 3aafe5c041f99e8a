package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"velo-routes-builder/internal/adapters/cache"
	"velo-routes-builder/internal/config"
	"velo-routes-builder/internal/domain"
)

// cachetool inspects the file-backed route cache:
//
//	cachetool list
//	cachetool show <route-id>
//	cachetool rm <route-id>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dir := flag.String("dir", config.Get("CACHE_DIR", "routes"), "cache directory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	switch args[0] {
	case "list":
		if err := list(*dir); err != nil {
			log.Fatal(err)
		}
	case "show":
		if len(args) < 2 {
			usage()
		}
		if err := show(*dir, args[1]); err != nil {
			log.Fatal(err)
		}
	case "rm":
		if len(args) < 2 {
			usage()
		}
		path := filepath.Join(*dir, domain.CacheKey(args[1])+".json")
		if err := os.Remove(path); err != nil {
			log.Fatal(err)
		}
		fmt.Println("removed", path)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cachetool [-dir routes] list | show <id> | rm <id>")
	os.Exit(2)
}

func list(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		fmt.Println("cache is empty")
		return nil
	}
	if err != nil {
		return err
	}

	store := cache.NewFileRouteCache(dir)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "route-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "route-"), ".json")

		record, err := store.Get(context.Background(), id)
		if err != nil {
			fmt.Printf("%-12s (unreadable)\n", id)
			continue
		}
		fmt.Printf("%-12s %-40s %6.1f km %5d m  %s\n",
			id, record.Title, record.DistanceKm, record.ElevationM, record.Type)
	}
	return nil
}

func show(dir, id string) error {
	store := cache.NewFileRouteCache(dir)

	record, err := store.Get(context.Background(), id)
	if err != nil {
		return fmt.Errorf("show %s: %w", id, err)
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
