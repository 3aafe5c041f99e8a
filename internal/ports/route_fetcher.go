package ports

import (
	"context"
	"fmt"

	"velo-routes-builder/internal/domain"
)

// One sample of a raw track: cumulative distance from the start and the
// elevation at that point, already converted to kilometers/meters by the
// strategy that produced it.
type TrackPoint struct {
	DistanceKm float64
	ElevationM float64
}

// RawRouteData is the unprocessed result of one fetch attempt. Fields the
// source did not supply stay at their zero value; the normalizer applies
// defaults and rejections. A RawRouteData is owned by the fetch attempt that
// produced it and is discarded after normalization.
type RawRouteData struct {
	Title       string
	Description string
	Type        domain.RouteType // surface type detected by the source, if any
	DistanceKm  float64
	ElevationM  float64
	Image       string
	ImageLarge  string
	TrackPoints []TrackPoint
}

// Contract for obtaining raw route data from the remote source.
type RouteFetcher interface {
	// Fetch raw data for the given route identifier. All strategies
	// exhausted is reported as a *FetchError.
	Fetch(ctx context.Context, id string) (*RawRouteData, error)
}

// FetchError reports that every fetch strategy failed for one route. It
// carries the identifier and the last underlying cause. It is never fatal to
// a build; the orchestrator skips the route and continues.
type FetchError struct {
	RouteID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch route %s: %v", e.RouteID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
