package services

import (
	"errors"
	"math"

	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/ports"
)

// ErrNoTitle rejects a fetched route that carries no title. A titleless
// route contributes nothing to the collection.
var ErrNoTitle = errors.New("fetched route has no title")

const (
	defaultDescription = "Route from RideWithGPS"

	// Maximum number of profile samples kept per route.
	profileCap = 200

	// Average speed used for the rough ride-time estimate, km/h.
	estimateSpeedKmh = 25
)

// Normalize converts one raw fetch result into the canonical RouteRecord.
//
// Type precedence: caller override > type detected by the fetch > road.
// All numeric fields come out in canonical units: distance in kilometers
// rounded to one decimal, elevation in whole meters.
func Normalize(raw *ports.RawRouteData, id, sourceURL string, override domain.RouteType) (*domain.RouteRecord, error) {
	if raw == nil || raw.Title == "" {
		return nil, ErrNoTitle
	}

	record := &domain.RouteRecord{
		ID:          domain.CacheKey(id),
		Title:       raw.Title,
		Description: raw.Description,
		SourceURL:   sourceURL,
		Type:        raw.Type,
		DistanceKm:  roundTo1(raw.DistanceKm),
		ElevationM:  int(math.Round(raw.ElevationM)),
		Image:       raw.Image,
		ImageLarge:  raw.ImageLarge,
		Profile:     downsampleProfile(raw.TrackPoints, profileCap),
	}

	if record.Description == "" {
		record.Description = defaultDescription
	}
	if override != "" {
		record.Type = override
	}
	if record.Type == "" {
		record.Type = domain.TypeRoad
	}
	if record.DistanceKm < 0 {
		record.DistanceKm = 0
	}
	if record.ElevationM < 0 {
		record.ElevationM = 0
	}

	if record.DistanceKm > 0 {
		record.EstimatedTimeMin = int(math.Round(record.DistanceKm / estimateSpeedKmh * 60))
	}

	return record, nil
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// downsampleProfile stride-samples a track that exceeds cap. This is a
// deterministic every-Nth selection, not interpolation: original order is
// preserved and the first sample is always kept, but consumers get reduced
// fidelity and no guarantee about the final sample.
func downsampleProfile(pts []ports.TrackPoint, limit int) []domain.ProfilePoint {
	if len(pts) == 0 {
		return nil
	}

	// Stride rounds up so the result never exceeds the limit.
	stride := 1
	if len(pts) > limit {
		stride = (len(pts) + limit - 1) / limit
	}

	out := make([]domain.ProfilePoint, 0, (len(pts)+stride-1)/stride)
	for i := 0; i < len(pts); i += stride {
		out = append(out, domain.ProfilePoint{
			DistanceKm: roundTo1(pts[i].DistanceKm),
			ElevationM: math.Round(pts[i].ElevationM),
		})
	}

	return out
}
