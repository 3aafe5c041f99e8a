package domain

import "strings"

// Surface classification for a route.
type RouteType string

const (
	TypeRoad   RouteType = "road"
	TypeGravel RouteType = "gravel"
	// TypeMixed is produced by surface auto-classification only; it is not
	// accepted as a caller override in ride lists.
	TypeMixed RouteType = "mixed"
)

// IsOverridable reports whether t may be used as a caller-specified type
// in a ride list entry.
func (t RouteType) IsOverridable() bool {
	return t == TypeRoad || t == TypeGravel
}

// A single sample of a route's elevation curve: cumulative distance from
// the start and the elevation at that point.
type ProfilePoint struct {
	DistanceKm float64 `json:"distanceKm"`
	ElevationM float64 `json:"elevationM"`
}

// RouteRecord is the canonical, cacheable representation of one route.
// All numeric fields are in canonical units (kilometers, meters) regardless
// of what the remote source reported.
type RouteRecord struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	SourceURL        string         `json:"sourceUrl"`
	Type             RouteType      `json:"type"`
	DistanceKm       float64        `json:"distanceKm"`
	ElevationM       int            `json:"elevationM"`
	Image            string         `json:"image,omitempty"`
	ImageLarge       string         `json:"imageLarge,omitempty"`
	EstimatedTimeMin int            `json:"estimatedTimeMin"`
	Profile          []ProfilePoint `json:"profile,omitempty"`
}

// ClassifySurface derives a route type from free-form page text.
// Unpaved keywords take precedence; "mixed" applies only when no unpaved
// keyword matched outright.
func ClassifySurface(text string) RouteType {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "gravel") ||
		strings.Contains(lower, "dirt") ||
		strings.Contains(lower, "unpaved") {
		return TypeGravel
	}
	if strings.Contains(lower, "mixed") {
		return TypeMixed
	}
	return TypeRoad
}
