package domain

import (
	"errors"
	"regexp"
)

// RouteReference is one requested route: the source URL plus an optional
// caller-specified surface type. References are build-scoped input; they are
// consumed immediately and never persisted.
type RouteReference struct {
	URL  string
	Type RouteType // empty when the caller did not specify one
}

// ErrNoRouteID indicates a reference string contains no extractable route
// identifier.
var ErrNoRouteID = errors.New("no route id in reference")

var routeIDPattern = regexp.MustCompile(`/routes/(\d+)`)

// ExtractRouteID returns the numeric route identifier embedded in a
// reference string (the digits following the first "/routes/" path segment).
// The identifier is the sole cache and deduplication key.
func ExtractRouteID(reference string) (string, error) {
	m := routeIDPattern.FindStringSubmatch(reference)
	if m == nil {
		return "", ErrNoRouteID
	}
	return m[1], nil
}

// CacheKey is the document key a route identifier is stored under.
func CacheKey(id string) string {
	return "route-" + id
}
