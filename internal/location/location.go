// Package location resolves where a scan request is coming from: the client
// IP behind whatever proxies are in front of the service, and an IP-based
// coordinate estimate when the request carries no explicit position.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// GeoAPIBaseURL is the IP geolocation service endpoint.
const GeoAPIBaseURL = "https://ipapi.co"

const lookupTimeout = 5 * time.Second

// ClientIP extracts the originating client address from a request, checking
// the forwarding headers set by proxies and CDNs before falling back to the
// socket address. X-Forwarded-For may carry a chain; the first hop is the
// client.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Resolver estimates coordinates from an IP address.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewResolver creates an IP geolocation resolver.
func NewResolver() *Resolver {
	return &Resolver{
		baseURL:    GeoAPIBaseURL,
		httpClient: &http.Client{Timeout: lookupTimeout},
	}
}

// WithBaseURL overrides the API endpoint (useful for testing).
func (r *Resolver) WithBaseURL(u string) *Resolver {
	r.baseURL = u
	return r
}

type geoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolved reports whether a coordinate pair is a real location rather than
// the (0, 0) failure sentinel FromIP returns. No populated place sits at
// exactly null island, so no real lookup result is lost to the check.
func Resolved(lat, lng float64) bool {
	return lat != 0 || lng != 0
}

// FromIP returns the estimated coordinates for ip. Every failure mode
// returns (0, 0), which callers treat as "location unknown"; it is also the
// null island sentinel, so no real lookup result is lost to it.
func (r *Resolver) FromIP(ctx context.Context, ip string) (lat, lng float64) {
	if ip == "" {
		return 0, 0
	}

	opCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/json/", r.baseURL, ip)
	req, err := http.NewRequestWithContext(opCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("location: lookup failed for %s: %v", ip, err)
		return 0, 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("location: lookup for %s returned HTTP %d", ip, resp.StatusCode)
		return 0, 0
	}

	var parsed geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("location: lookup parse failed for %s: %v", ip, err)
		return 0, 0
	}

	return parsed.Latitude, parsed.Longitude
}
