// Package route decides whether a reported aircraft position is geometrically
// consistent with its claimed origin and destination. Live-data vendors
// occasionally serve stale or corrupted positions; an aircraft reporting a
// Madrid-Lisbon route while sitting over Ohio is vendor noise, not traffic.
//
// Real flight paths deviate substantially from geodesics (jet streams, ATC
// tracks, weather), so the tolerances here deliberately trade precision for
// not discarding valid long-haul traffic.
package route

import (
	"math"

	"github.com/jetscan-audio/jetscan/pkg/geo"
)

const (
	// EndpointProximityKm triggers the short-route check: a point closer
	// than this to either endpoint must also be within half the route length
	EndpointProximityKm = 300.0

	// BoundingBoxMarginDeg expands the origin/destination box in every
	// direction before the containment test
	BoundingBoxMarginDeg = 10.0

	// MaxRouteDeviationKm is the absolute great-circle deviation allowed,
	// generous enough for trans-oceanic weather routing
	MaxRouteDeviationKm = 1500.0

	// MaxRouteDeviationRatio caps deviation relative to route length, which
	// catches false positives on short routes
	MaxRouteDeviationRatio = 0.5
)

// IsPlausible reports whether a point could reasonably lie on a flight from
// origin to dest. Checks run in order and short-circuit:
//
//  1. Endpoint proximity: a point within EndpointProximityKm of an endpoint
//     is accepted only if that endpoint distance is at most half the route
//     length.
//  2. Bounding box: the point must lie inside the origin/destination box
//     expanded by BoundingBoxMarginDeg, with the longitude test inverted for
//     routes crossing the antimeridian.
//  3. Great-circle tolerance: the point's minimum distance to the geodesic
//     must not exceed half the route length nor MaxRouteDeviationKm.
func IsPlausible(point, origin, dest geo.Point) bool {
	dOrigin := geo.Distance(point.Latitude, point.Longitude, origin.Latitude, origin.Longitude)
	dDest := geo.Distance(point.Latitude, point.Longitude, dest.Latitude, dest.Longitude)
	dRoute := geo.Distance(origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude)

	// Rule 1: endpoint proximity. Near an endpoint the bounding box and
	// great-circle checks are too permissive for short routes.
	if dOrigin < EndpointProximityKm || dDest < EndpointProximityKm {
		closer := math.Min(dOrigin, dDest)
		return closer <= dRoute*MaxRouteDeviationRatio
	}

	// Rule 2: expanded bounding box around the endpoints.
	if !inExpandedBox(point, origin, dest) {
		return false
	}

	// Rule 3: distance to the great circle itself.
	deviation := geo.MinDistanceToRoute(point, origin, dest)
	if deviation > dRoute*MaxRouteDeviationRatio {
		return false
	}
	if deviation > MaxRouteDeviationKm {
		return false
	}

	return true
}

// inExpandedBox tests containment in the lat/lon box spanned by origin and
// dest, expanded by BoundingBoxMarginDeg on every side.
func inExpandedBox(point, origin, dest geo.Point) bool {
	minLat := math.Min(origin.Latitude, dest.Latitude) - BoundingBoxMarginDeg
	maxLat := math.Max(origin.Latitude, dest.Latitude) + BoundingBoxMarginDeg

	if point.Latitude < minLat || point.Latitude > maxLat {
		return false
	}

	minLon := math.Min(origin.Longitude, dest.Longitude) - BoundingBoxMarginDeg
	maxLon := math.Max(origin.Longitude, dest.Longitude) + BoundingBoxMarginDeg

	// Routes spanning more than 180 degrees of longitude cross the
	// antimeridian; the shorter arc runs the other way around, so the
	// containment test inverts.
	crossesAntimeridian := math.Abs(origin.Longitude-dest.Longitude) > 180.0
	inLonRange := point.Longitude >= minLon && point.Longitude <= maxLon

	if crossesAntimeridian {
		return !inLonRange
	}
	return inLonRange
}
