// Package provider abstracts the live aircraft data vendors behind a common
// interface. Each vendor builds its own bounding-box query, normalizes the
// response into flight.Observation, and reports failure as a descriptive
// string instead of an error so the fallback chain can keep moving.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/jetscan-audio/jetscan/pkg/flight"
)

const (
	// DefaultTimeout bounds every vendor HTTP request
	DefaultTimeout = 10 * time.Second

	// MinFetchLimit is the floor applied to vendor query limits so a small
	// interactive request still returns enough candidates for selection
	MinFetchLimit = 5
)

// Provider is a single live-data vendor.
//
// Fetch must not fail with a Go error for ordinary vendor trouble (timeout,
// HTTP non-200, malformed body). It returns the observations it could parse
// plus a human-readable reason when it returns none. An empty reason with an
// empty slice means the vendor answered and genuinely had nothing to report.
type Provider interface {
	// Name is the registry key and cache namespace for this vendor
	Name() string

	// DisplayName is the human-facing vendor name for logs and errors
	DisplayName() string

	// IsConfigured reports whether the vendor can be queried, with a
	// reason when it cannot
	IsConfigured() (bool, string)

	// Fetch returns aircraft near (lat, lng) within radiusKm, normalized
	// and sorted by distance ascending
	Fetch(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]flight.Observation, string)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func fetchLimit(limit int) int {
	if limit < MinFetchLimit {
		return MinFetchLimit
	}
	return limit
}
