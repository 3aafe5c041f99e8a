package rwgps

import (
	"context"
	"errors"
	"sync"

	"velo-routes-builder/internal/ports"
)

// MockFetcher serves canned raw data keyed by route id. Routes without an
// entry fail with a *ports.FetchError. It also counts calls so tests can
// assert that cache hits issue no fetches. Safe for concurrent use.
type MockFetcher struct {
	Data map[string]*ports.RawRouteData
	Errs map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func NewMockFetcher(data map[string]*ports.RawRouteData) *MockFetcher {
	return &MockFetcher{
		Data:  data,
		Errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (m *MockFetcher) Fetch(ctx context.Context, id string) (*ports.RawRouteData, error) {
	m.mu.Lock()
	m.calls[id]++
	m.mu.Unlock()

	if err, ok := m.Errs[id]; ok {
		return nil, &ports.FetchError{RouteID: id, Err: err}
	}
	raw, ok := m.Data[id]
	if !ok {
		return nil, &ports.FetchError{RouteID: id, Err: errors.New("no such route")}
	}
	return raw, nil
}

// Calls reports how many times id was fetched.
func (m *MockFetcher) CallCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// TotalCalls reports fetches across all ids.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}
