// Package geo provides the great-circle math used throughout the scanner:
// haversine distances, geodesic sampling between airports, and the
// degree-delta bounding boxes that the live-data providers query with.
//
// All positions are WGS84 decimal degrees. All distances are kilometers.
package geo

import (
	"math"
)

// Constants for geographic calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's radius in kilometers (WGS84 mean radius)
	EarthRadiusKm = 6371.0

	// KmPerDegreeLat is the approximate surface distance of one degree of latitude
	KmPerDegreeLat = 111.0

	// MinCosLat clamps the longitude divisor near the poles so bounding-box
	// math never divides by a vanishing cosine
	MinCosLat = 0.01

	// KmToMiles converts kilometers to statute miles
	KmToMiles = 0.621371

	// KnotsToKmh converts knots to kilometers per hour
	KnotsToKmh = 1.852

	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084
)

// Point is a position on Earth's surface in decimal degrees.
type Point struct {
	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64
}

// Valid reports whether the point lies within the legal lat/lon ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance between two points in kilometers
// using the Haversine formula.
//
// The result is symmetric: Distance(a, b) == Distance(b, a), and zero for
// identical points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * DegreesToRadians
	lat2Rad := lat2 * DegreesToRadians
	deltaLat := (lat2 - lat1) * DegreesToRadians
	deltaLon := (lon2 - lon1) * DegreesToRadians

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// SampleGreatCircle returns evenly spaced points along the geodesic between
// two positions, endpoints included.
//
// numSamples is a floor: at least 10 samples are always produced, and callers
// typically request one sample per 100 km of route length so long routes are
// sampled densely enough for minimum-distance queries.
func SampleGreatCircle(lat1, lon1, lat2, lon2 float64, numSamples int) []Point {
	if numSamples < 10 {
		numSamples = 10
	}

	lat1Rad := lat1 * DegreesToRadians
	lon1Rad := lon1 * DegreesToRadians
	lat2Rad := lat2 * DegreesToRadians
	lon2Rad := lon2 * DegreesToRadians

	// Angular distance between the endpoints
	d := Distance(lat1, lon1, lat2, lon2) / EarthRadiusKm

	points := make([]Point, 0, numSamples)

	// Degenerate route: both endpoints are the same point
	if d == 0 || math.IsNaN(d) {
		for i := 0; i < numSamples; i++ {
			points = append(points, Point{Latitude: lat1, Longitude: lon1})
		}
		return points
	}

	sinD := math.Sin(d)

	for i := 0; i < numSamples; i++ {
		f := float64(i) / float64(numSamples-1)

		// Spherical linear interpolation between the endpoint vectors
		a := math.Sin((1-f)*d) / sinD
		b := math.Sin(f*d) / sinD

		x := a*math.Cos(lat1Rad)*math.Cos(lon1Rad) + b*math.Cos(lat2Rad)*math.Cos(lon2Rad)
		y := a*math.Cos(lat1Rad)*math.Sin(lon1Rad) + b*math.Cos(lat2Rad)*math.Sin(lon2Rad)
		z := a*math.Sin(lat1Rad) + b*math.Sin(lat2Rad)

		lat := math.Atan2(z, math.Sqrt(x*x+y*y))
		lon := math.Atan2(y, x)

		points = append(points, Point{
			Latitude:  lat * RadiansToDegrees,
			Longitude: lon * RadiansToDegrees,
		})
	}

	return points
}

// MinDistanceToRoute returns the minimum distance in kilometers from a point
// to the great-circle route between origin and destination, computed over
// geodesic samples (one per 100 km of route length, minimum 10).
//
// Returns +Inf on any malformed input, never panics: callers rely on this to
// keep route validation a total boolean function.
func MinDistanceToRoute(point, origin, dest Point) float64 {
	if !point.Valid() || !origin.Valid() || !dest.Valid() {
		return math.Inf(1)
	}

	routeKm := Distance(origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude)
	if math.IsNaN(routeKm) {
		return math.Inf(1)
	}

	numSamples := int(routeKm / 100.0)
	samples := SampleGreatCircle(origin.Latitude, origin.Longitude,
		dest.Latitude, dest.Longitude, numSamples)

	minDist := math.Inf(1)
	for _, s := range samples {
		d := Distance(point.Latitude, point.Longitude, s.Latitude, s.Longitude)
		if !math.IsNaN(d) && d < minDist {
			minDist = d
		}
	}

	return minDist
}

// BoundingBox is a lat/lon rectangle used for provider area queries.
type BoundingBox struct {
	South float64
	North float64
	West  float64
	East  float64
}

// BoxAround returns a bounding box centered on (lat, lon) spanning radiusKm
// in each direction. The longitude delta is widened by 1/cos(lat), clamped at
// MinCosLat so the box stays finite near the poles.
func BoxAround(lat, lon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / KmPerDegreeLat
	lonDenominator := KmPerDegreeLat * math.Max(math.Cos(lat*DegreesToRadians), MinCosLat)
	lonDelta := radiusKm / lonDenominator

	return BoundingBox{
		South: lat - latDelta,
		North: lat + latDelta,
		West:  lon - lonDelta,
		East:  lon + lonDelta,
	}
}
