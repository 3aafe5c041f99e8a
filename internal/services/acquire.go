package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/platform/obs"
	"velo-routes-builder/internal/ports"
)

type AcquireOptions struct {
	// Workers bounds parallel fetches across distinct identifiers.
	// 1 means strictly sequential. Zero or negative selects the default.
	Workers int
}

const defaultWorkers = 4

// One surviving reference after identifier extraction and deduplication.
type acquireTask struct {
	id  string
	ref domain.RouteReference
}

// Acquire assembles the route collection for one build.
//
// Per reference: extract the identifier, consult the cache, fetch and
// normalize on a miss, write the result back. Identifiers are deduplicated
// before any cache or network work (first occurrence wins). Every
// per-reference failure only skips that reference; the batch never aborts.
// The returned collection is sorted ascending by distance, stable on ties.
func Acquire(
	ctx context.Context,
	refs []domain.RouteReference,
	cache ports.RouteCache,
	fetcher ports.RouteFetcher,
	opts AcquireOptions,
) []*domain.RouteRecord {
	defer obs.Time(ctx, "routes.acquire")(nil)

	tasks := make([]acquireTask, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		id, err := domain.ExtractRouteID(ref.URL)
		if err != nil {
			log.Printf("warn: %s: no route id in reference, skipping", ref.URL)
			continue
		}
		if _, dup := seen[id]; dup {
			log.Printf("warn: route=%s duplicate reference %s, skipping", id, ref.URL)
			continue
		}
		seen[id] = struct{}{}
		tasks = append(tasks, acquireTask{id: id, ref: ref})
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	// Results are indexed by task position so ties in the final sort keep
	// input order regardless of completion order.
	results := make([]*domain.RouteRecord, len(tasks))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task acquireTask) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = acquireOne(ctx, task, cache, fetcher)
		}(i, task)
	}

	// Join before assembly: the sort must see every completed task.
	wg.Wait()

	collection := make([]*domain.RouteRecord, 0, len(tasks))
	for _, r := range results {
		if r != nil {
			collection = append(collection, r)
		}
	}

	sort.SliceStable(collection, func(a, b int) bool {
		return collection[a].DistanceKm < collection[b].DistanceKm
	})

	return collection
}

// acquireOne runs the cache-aside flow for a single deduplicated reference.
// A nil return means the reference was skipped.
func acquireOne(
	ctx context.Context,
	task acquireTask,
	cache ports.RouteCache,
	fetcher ports.RouteFetcher,
) *domain.RouteRecord {
	record, err := cache.Get(ctx, task.id)
	if err == nil {
		// Cache hit. Keep the source URL current and apply the caller
		// override in memory only; the cached copy is not rewritten.
		record.SourceURL = task.ref.URL
		if task.ref.Type != "" {
			record.Type = task.ref.Type
		}
		return record
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		log.Printf("warn: route=%s cache read failed: %v (treating as miss)", task.id, err)
	}

	// An aborted run stops issuing new requests.
	if ctx.Err() != nil {
		log.Printf("warn: route=%s acquisition cancelled before fetch", task.id)
		return nil
	}

	raw, err := fetcher.Fetch(ctx, task.id)
	if err != nil {
		log.Printf("warn: route=%s fetch failed: %v, skipping", task.id, err)
		return nil
	}

	record, err = Normalize(raw, task.id, task.ref.URL, task.ref.Type)
	if err != nil {
		log.Printf("warn: route=%s rejected: %v, skipping", task.id, err)
		return nil
	}

	// Never write back a record whose run was aborted mid-flight.
	if ctx.Err() != nil {
		return nil
	}

	if err := cache.Put(ctx, task.id, record); err != nil {
		// The cache is an optimization; the record still joins the build.
		log.Printf("warn: route=%s cache write failed: %v", task.id, err)
	}

	return record
}
