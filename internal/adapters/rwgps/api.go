package rwgps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"velo-routes-builder/internal/ports"
)

// Flat-earth approximation for converting degree deltas to kilometers.
// Acceptable only because route track spans are short.
const degreesToKm = 111.32

type apiTrackPoint struct {
	D         *float64 `json:"d"`
	Distance  *float64 `json:"distance"`
	E         *float64 `json:"e"`
	Ele       *float64 `json:"ele"`
	Elevation *float64 `json:"elevation"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

type apiRoute struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Distance      *float64        `json:"distance"`       // meters
	ElevationGain *float64        `json:"elevation_gain"` // meters
	TrackPoints   []apiTrackPoint `json:"track_points"`
}

// The API serves the route object either flat or nested under "route".
type apiResponse struct {
	apiRoute
	Route *apiRoute `json:"route"`
}

// fetchFromAPI requests the machine-readable representation of a route.
// The result is usable only when the response decodes and carries a
// non-empty name; anything else falls through to the page scrape.
func (c *Client) fetchFromAPI(ctx context.Context, id string) (*ports.RawRouteData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.apiTimeout)
	defer cancel()

	url := c.routeURL(id) + ".json"

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, url, "application/json")
	})
	if err != nil {
		return nil, fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode api response: %w", err)
	}

	route := &decoded.apiRoute
	if decoded.Route != nil {
		route = decoded.Route
	}

	if route.Name == "" {
		return nil, errors.New("api response has no route name")
	}

	raw := &ports.RawRouteData{
		Title:       route.Name,
		Description: route.Description,
		Image:       c.thumbURL(id),
		ImageLarge:  c.fullImageURL(id),
	}

	if route.Distance != nil {
		raw.DistanceKm = *route.Distance / 1000
	}
	if route.ElevationGain != nil {
		raw.ElevationM = *route.ElevationGain
	}

	raw.TrackPoints = convertTrackPoints(route.TrackPoints)

	return raw, nil
}

// convertTrackPoints maps API track samples to canonical units. Samples
// carrying a cumulative distance use it directly (meters -> km); samples
// carrying only raw x/y positions get a cumulative distance derived from
// successive 2-D deltas.
func convertTrackPoints(pts []apiTrackPoint) []ports.TrackPoint {
	if len(pts) == 0 {
		return nil
	}

	out := make([]ports.TrackPoint, 0, len(pts))

	var cumulative float64
	var prevX, prevY float64
	havePrev := false

	for _, p := range pts {
		tp := ports.TrackPoint{}

		switch {
		case p.D != nil:
			tp.DistanceKm = *p.D / 1000
		case p.Distance != nil:
			tp.DistanceKm = *p.Distance / 1000
		case p.X != nil && p.Y != nil:
			if havePrev {
				dx := *p.X - prevX
				dy := *p.Y - prevY
				cumulative += math.Hypot(dx, dy) * degreesToKm
			}
			prevX, prevY = *p.X, *p.Y
			havePrev = true
			tp.DistanceKm = cumulative
		default:
			// No positional data at all; skip the sample.
			continue
		}

		switch {
		case p.E != nil:
			tp.ElevationM = *p.E
		case p.Ele != nil:
			tp.ElevationM = *p.Ele
		case p.Elevation != nil:
			tp.ElevationM = *p.Elevation
		}

		out = append(out, tp)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
