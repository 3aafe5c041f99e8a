package rwgps

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"velo-routes-builder/internal/ports"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; VeloRoutesBuilder/1.0)"

// Client implements ports.RouteFetcher against RideWithGPS.
//
// It tries an ordered chain of fetch strategies per route: the JSON API
// first, then a scrape of the public route page. The first strategy that
// yields a usable result wins; when the chain is exhausted the last cause is
// reported as a *ports.FetchError.
//
// The client is safe for concurrent use.
type Client struct {
	session     *http.Client
	baseURL     string
	userAgent   string
	apiTimeout  time.Duration
	pageTimeout time.Duration
}

func NewClient(baseURL string) *Client {
	return &Client{
		// Per-strategy timeouts are applied via context; the session itself
		// carries no global deadline.
		session:     &http.Client{},
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   defaultUserAgent,
		apiTimeout:  10 * time.Second,
		pageTimeout: 15 * time.Second,
	}
}

type strategy struct {
	name string
	run  func(ctx context.Context, id string) (*ports.RawRouteData, error)
}

// Fetch tries each strategy in order and returns the first usable result.
// A strategy failure (network error, non-success status, unusable body) is
// logged and triggers the next strategy, never the whole build.
func (c *Client) Fetch(ctx context.Context, id string) (*ports.RawRouteData, error) {
	strategies := []strategy{
		{name: "api", run: c.fetchFromAPI},
		{name: "page", run: c.fetchFromPage},
	}

	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, &ports.FetchError{RouteID: id, Err: err}
		}

		raw, err := s.run(ctx, id)
		if err != nil {
			log.Printf("warn: route=%s strategy=%s failed: %v", id, s.name, err)
			lastErr = err
			continue
		}
		return raw, nil
	}

	return nil, &ports.FetchError{RouteID: id, Err: lastErr}
}

func (c *Client) routeURL(id string) string {
	return c.baseURL + "/routes/" + id
}

// Derived from the identifier alone; never fetched as part of route data.
func (c *Client) thumbURL(id string) string {
	return c.routeURL(id) + "/thumb.png"
}

func (c *Client) fullImageURL(id string) string {
	return c.routeURL(id) + "/full.png"
}
