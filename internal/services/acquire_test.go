package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"velo-routes-builder/internal/adapters/cache"
	"velo-routes-builder/internal/adapters/rwgps"
	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/ports"
)

// In-memory RouteCache for orchestrator tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string]domain.RouteRecord
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]domain.RouteRecord{}}
}

func (m *memCache) Get(ctx context.Context, id string) (*domain.RouteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[id]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	copied := r
	return &copied, nil
}

func (m *memCache) Put(ctx context.Context, id string, record *domain.RouteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = *record
	m.puts++
	return nil
}

func refURL(id string) string {
	return "https://ridewithgps.com/routes/" + id
}

func TestAcquireFetchesNormalizesAndCaches(t *testing.T) {
	fetcher := rwgps.NewMockFetcher(map[string]*ports.RawRouteData{
		"42": {Title: "Loop", DistanceKm: 20.0, ElevationM: 150},
	})
	store := newMemCache()

	refs := []domain.RouteReference{{URL: refURL("42"), Type: domain.TypeGravel}}

	got := Acquire(context.Background(), refs, store, fetcher, AcquireOptions{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	r := got[0]
	if r.ID != "route-42" || r.Title != "Loop" || r.Type != domain.TypeGravel {
		t.Fatalf("record = %+v", r)
	}
	if r.DistanceKm != 20.0 || r.ElevationM != 150 {
		t.Fatalf("record = %+v", r)
	}

	if store.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", store.puts)
	}
	// The override is baked into the written copy.
	if cached := store.entries["42"]; cached.Type != domain.TypeGravel {
		t.Fatalf("cached type = %q, want gravel", cached.Type)
	}
}

func TestAcquireSecondRunIsIdempotentAndOffline(t *testing.T) {
	fetcher := rwgps.NewMockFetcher(map[string]*ports.RawRouteData{
		"1": {Title: "A", DistanceKm: 30},
		"2": {Title: "B", DistanceKm: 10},
	})
	store := newMemCache()

	refs := []domain.RouteReference{
		{URL: refURL("1")},
		{URL: refURL("2")},
	}

	first := Acquire(context.Background(), refs, store, fetcher, AcquireOptions{})
	if fetcher.TotalCalls() != 2 {
		t.Fatalf("first run fetches = %d, want 2", fetcher.TotalCalls())
	}

	second := Acquire(context.Background(), refs, store, fetcher, AcquireOptions{})
	if fetcher.TotalCalls() != 2 {
		t.Fatalf("second run must issue no fetches, got %d total", fetcher.TotalCalls())
	}

	if len(first) != len(second) {
		t.Fatalf("run sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.ID != b.ID || a.Title != b.Title || a.DistanceKm != b.DistanceKm ||
			a.ElevationM != b.ElevationM || a.Type != b.Type || a.Description != b.Description {
			t.Fatalf("record %d differs between runs:\n%+v\n%+v", i, a, b)
		}
	}
}

func TestAcquireDeduplicatesByIdentifier(t *testing.T) {
	fetcher := rwgps.NewMockFetcher(map[string]*ports.RawRouteData{
		"9": {Title: "Once", DistanceKm: 5},
	})
	store := newMemCache()

	refs := []domain.RouteReference{
		{URL: refURL("9"), Type: domain.TypeGravel},
		{URL: refURL("9") + "?copy=1", Type: domain.TypeRoad},
	}

	got := Acquire(context.Background(), refs, store, fetcher, AcquireOptions{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 after dedupe", len(got))
	}
	// First occurrence wins, including its override.
	if got[0].Type != domain.TypeGravel {
		t.Fatalf("Type = %q, want first occurrence's gravel", got[0].Type)
	}
	if fetcher.CallCount("9") != 1 {
		t.Fatalf("fetches for 9 = %d, want 1", fetcher.CallCount("9"))
	}
}

func TestAcquireSkipsInvalidAndFailedReferences(t *testing.T) {
	fetcher := rwgps.NewMockFetcher(map[string]*ports.RawRouteData{
		"1": {Title: "Good", DistanceKm: 12},
		"3": {DistanceKm: 9}, // no title: normalization rejects
	})
	fetcher.Errs["2"] = errors.New("connection refused")
	store := newMemCache()

	refs := []domain.RouteReference{
		{URL: "https://ridewithgps.com/users/5"}, // no extractable id
		{URL: refURL("1")},
		{URL: refURL("2")}, // fetch fails
		{URL: refURL("3")}, // rejected by normalizer
	}

	got := Acquire(context.Background(), refs, store, fetcher, AcquireOptions{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want only the good route", len(got))
	}
	if got[0].ID != "route-1" {
		t.Fatalf("got %q", got[0].ID)
	}
	if store.puts != 1 {
		t.Fatalf("cache puts = %d, want 1 (failures must not be cached)", store.puts)
	}
}

func TestAcquireSortsByDistanceStable(t *testing.T) {
	fetcher := rwgps.NewMockFetcher(map[string]*ports.RawRouteData{
		"10": {Title: "Long", DistanceKm: 80},
		"11": {Title: "Short A", DistanceKm: 20},
		"12": {Title: "Short B", DistanceKm: 20},
		"13": {Title: "No Distance"},
	})
	store := newMemCache()

	refs := []domain.RouteReference{
		{URL: refURL("10")},
		{URL: refURL("11")},
		{URL: refURL("12")},
		{URL: refURL("13")},
	}

	// Sequential so the completion order cannot mask a sort bug.
	got := Acquire(context.Background(), refs, store, fetcher, AcquireOptions{Workers: 1})
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}

	wantOrder := []string{"route-13", "route-11", "route-12", "route-10"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Fatalf("position %d = %s, want %s (full: %v)", i, got[i].ID, want, ids(got))
		}
	}
}

func ids(rs []*domain.RouteRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestAcquireAppliesOverrideOnCacheHitWithoutWriteBack(t *testing.T) {
	fetcher := rwgps.NewMockFetcher(nil)
	store := newMemCache()
	store.entries["6"] = domain.RouteRecord{
		ID: "route-6", Title: "Cached", Type: domain.TypeRoad, DistanceKm: 15,
	}

	refs := []domain.RouteReference{{URL: refURL("6"), Type: domain.TypeGravel}}

	got := Acquire(context.Background(), refs, store, fetcher, AcquireOptions{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Type != domain.TypeGravel {
		t.Fatalf("Type = %q, want in-memory override", got[0].Type)
	}
	if got[0].SourceURL != refURL("6") {
		t.Fatalf("SourceURL = %q, want refreshed from the reference", got[0].SourceURL)
	}

	if fetcher.TotalCalls() != 0 {
		t.Fatalf("cache hit must not fetch, got %d calls", fetcher.TotalCalls())
	}
	if store.puts != 0 {
		t.Fatalf("cache hit must not write back, got %d puts", store.puts)
	}
	if store.entries["6"].Type != domain.TypeRoad {
		t.Fatal("cached copy's type must stay untouched")
	}
}

func TestAcquireEndToEndStructuredEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/routes/42.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"route":{"name":"Loop","distance":20000,"elevation_gain":150}}`))
	}))
	defer srv.Close()

	client := rwgps.NewClient(srv.URL)
	store := cache.NewFileRouteCache(t.TempDir())

	input := srv.URL + "/routes/42, gravel\n"
	refs, err := LoadReferences(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadReferences: %v", err)
	}

	got := Acquire(context.Background(), refs, store, client, AcquireOptions{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	r := got[0]
	if r.ID != "route-42" || r.Title != "Loop" || r.Type != domain.TypeGravel {
		t.Fatalf("record = %+v", r)
	}
	if r.DistanceKm != 20.0 || r.ElevationM != 150 {
		t.Fatalf("record = %+v", r)
	}

	// The record made it into the persistent cache.
	cached, err := store.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("cache Get after acquire: %v", err)
	}
	if cached.Title != "Loop" {
		t.Fatalf("cached = %+v", cached)
	}
}

func TestAcquireCancelledContextStopsNewFetches(t *testing.T) {
	fetcher := rwgps.NewMockFetcher(map[string]*ports.RawRouteData{
		"1": {Title: "A"},
	})
	store := newMemCache()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := Acquire(ctx, []domain.RouteReference{{URL: refURL("1")}}, store, fetcher, AcquireOptions{})
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0 after cancellation", len(got))
	}
	if fetcher.TotalCalls() != 0 {
		t.Fatalf("cancelled run must not start fetches, got %d", fetcher.TotalCalls())
	}
	if store.puts != 0 {
		t.Fatalf("cancelled run must not write the cache, got %d puts", store.puts)
	}
}
