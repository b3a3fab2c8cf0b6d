package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jetscan-audio/jetscan/pkg/flight"
)

// airLabsFixture builds a minimal /flights response body.
func airLabsFixture(flights []map[string]interface{}) string {
	body, _ := json.Marshal(map[string]interface{}{"response": flights})
	return string(body)
}

func floatPtr(f float64) *float64 { return &f }

func TestAirLabsNotConfigured(t *testing.T) {
	p := NewAirLabs("")

	ok, reason := p.IsConfigured()
	if ok {
		t.Fatal("expected unconfigured provider")
	}
	if reason == "" {
		t.Error("expected a reason for the missing key")
	}

	observations, errMsg := p.Fetch(context.Background(), 40.0, -74.0, 100, 10)
	if len(observations) != 0 || errMsg == "" {
		t.Errorf("unconfigured fetch should return no results and a reason, got %d results, %q", len(observations), errMsg)
	}
}

func TestAirLabsFetch(t *testing.T) {
	// User near Atlanta; one en-route flight overhead plus records that
	// each trip a different filter.
	userLat, userLng := 33.64, -84.42

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("bbox") == "" {
			t.Error("expected bbox query parameter")
		}

		flights := []map[string]interface{}{
			{
				// Valid: Delta en-route ATL to JFK, just overhead
				"hex": "a1b2c3", "flight_icao": "DAL401", "flight_iata": "DL401",
				"flight_number": "401", "airline_icao": "DAL", "airline_iata": "DL",
				"dep_iata": "ATL", "arr_iata": "JFK", "reg_number": "N301DQ",
				"aircraft_icao": "B738", "lat": 33.70, "lng": -84.40,
				"alt": 10000.0, "speed": 850.0, "status": "en-route", "updated": 1735000000,
			},
			{
				// Not en-route
				"hex": "b2c3d4", "flight_icao": "DAL500", "airline_icao": "DAL",
				"lat": 33.65, "lng": -84.41, "status": "landed",
			},
			{
				// Missing position
				"hex": "c3d4e5", "flight_icao": "DAL600", "airline_icao": "DAL",
				"status": "en-route",
			},
			{
				// Ignored operator
				"hex": "d4e5f6", "flight_icao": "VJA123", "airline_icao": "VJA",
				"lat": 33.66, "lng": -84.43, "status": "en-route",
			},
		}
		fmt.Fprint(w, airLabsFixture(flights))
	}))
	defer server.Close()

	p := NewAirLabs("test-key").WithBaseURL(server.URL)

	observations, errMsg := p.Fetch(context.Background(), userLat, userLng, 100, 10)
	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(observations))
	}

	obs := observations[0]
	if obs.FlightNumber != "DL401" {
		t.Errorf("flight number = %q, want DL401", obs.FlightNumber)
	}
	if obs.AirlineName == "" {
		t.Error("expected airline name resolved from DAL")
	}
	if obs.OriginIATA != "ATL" || obs.DestinationIATA != "JFK" {
		t.Errorf("route = %s-%s, want ATL-JFK", obs.OriginIATA, obs.DestinationIATA)
	}
	if obs.DistanceKm <= 0 {
		t.Error("expected positive distance from user")
	}
	if obs.ETA == "" {
		t.Error("expected an ETA estimate for a resolvable destination")
	}
	if obs.AltitudeFt < minReportedAltitudeFt {
		t.Errorf("altitude = %d ft, expected converted value above floor", obs.AltitudeFt)
	}
}

func TestAirLabsDropsImplausibleRoute(t *testing.T) {
	// Flight claims SYD to MEL but position is over Atlanta. Stale data.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flights := []map[string]interface{}{
			{
				"hex": "aaaaaa", "flight_icao": "QFA400", "airline_icao": "QFA",
				"dep_iata": "SYD", "arr_iata": "MEL",
				"lat": 33.70, "lng": -84.40, "status": "en-route",
			},
		}
		fmt.Fprint(w, airLabsFixture(flights))
	}))
	defer server.Close()

	p := NewAirLabs("test-key").WithBaseURL(server.URL)

	observations, _ := p.Fetch(context.Background(), 33.64, -84.42, 100, 10)
	if len(observations) != 0 {
		t.Errorf("expected implausible route dropped, got %d observations", len(observations))
	}
}

func TestAirLabsFiltersBeyondRadius(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flights := []map[string]interface{}{
			{
				// Roughly 550 km away, outside the 100 km radius
				"hex": "bbbbbb", "flight_icao": "DAL700", "airline_icao": "DAL",
				"lat": 38.85, "lng": -84.42, "status": "en-route",
			},
		}
		fmt.Fprint(w, airLabsFixture(flights))
	}))
	defer server.Close()

	p := NewAirLabs("test-key").WithBaseURL(server.URL)

	observations, errMsg := p.Fetch(context.Background(), 33.64, -84.42, 100, 10)
	if len(observations) != 0 {
		t.Errorf("expected out-of-radius record dropped, got %d", len(observations))
	}
	if errMsg != "" {
		t.Errorf("legitimately empty result should carry no error, got %q", errMsg)
	}
}

func TestAirLabsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewAirLabs("test-key").WithBaseURL(server.URL)

	observations, errMsg := p.Fetch(context.Background(), 33.64, -84.42, 100, 10)
	if len(observations) != 0 {
		t.Error("expected no observations on HTTP error")
	}
	if errMsg == "" {
		t.Error("expected a descriptive error string")
	}
}

func TestAirLabsErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"unknown api_key"}}`)
	}))
	defer server.Close()

	p := NewAirLabs("bad-key").WithBaseURL(server.URL)

	observations, errMsg := p.Fetch(context.Background(), 33.64, -84.42, 100, 10)
	if len(observations) != 0 || errMsg != "unknown api_key" {
		t.Errorf("got %d observations, error %q", len(observations), errMsg)
	}
}

func TestUnitConversions(t *testing.T) {
	t.Run("Altitude below floor suppressed", func(t *testing.T) {
		if got := altitudeFromMeters(floatPtr(100)); got != 0 {
			t.Errorf("328 ft should be suppressed, got %d", got)
		}
	})

	t.Run("Altitude converted to feet", func(t *testing.T) {
		got := altitudeFromMeters(floatPtr(10000))
		if got < 32800 || got > 32810 {
			t.Errorf("10000 m = %d ft, want ~32808", got)
		}
	})

	t.Run("Speed below floor suppressed", func(t *testing.T) {
		if got := speedFromKmh(floatPtr(150)); got != 0 {
			t.Errorf("~81 kt should be suppressed, got %d", got)
		}
	})

	t.Run("Speed converted to knots", func(t *testing.T) {
		got := speedFromKmh(floatPtr(926))
		if got != 500 {
			t.Errorf("926 km/h = %d kt, want 500", got)
		}
	})

	t.Run("Nil readings", func(t *testing.T) {
		if altitudeFromMeters(nil) != 0 || speedFromKmh(nil) != 0 {
			t.Error("nil vendor fields should read as unreported")
		}
	})
}

// makeQualityPool builds named+anonymous observations for filter tests.
// Named records carry a speed so the second quality predicate keeps them too.
func makeQualityPool(named, anonymous int) []flight.Observation {
	pool := make([]flight.Observation, 0, named+anonymous)
	for i := 0; i < named; i++ {
		pool = append(pool, flight.Observation{
			Callsign:      fmt.Sprintf("DAL%d", 100+i),
			AirlineName:   "Delta Air Lines",
			GroundSpeedKt: 450,
		})
	}
	for i := 0; i < anonymous; i++ {
		pool = append(pool, flight.Observation{
			Callsign: fmt.Sprintf("N%d", 100+i),
		})
	}
	return pool
}

func TestApplyQualityFilters(t *testing.T) {
	t.Run("Small pool untouched", func(t *testing.T) {
		pool := makeQualityPool(3, 0)
		if got := applyQualityFilters(pool); len(got) != 3 {
			t.Errorf("pool of 3 should pass through, got %d", len(got))
		}
	})

	t.Run("Large pool tightened", func(t *testing.T) {
		// 6 with airline names, 3 anonymous: first predicate applies
		pool := makeQualityPool(6, 3)
		got := applyQualityFilters(pool)
		for _, o := range got {
			if o.AirlineName == "" {
				t.Error("anonymous record survived quality filtering")
			}
		}
		if len(got) != 6 {
			t.Errorf("expected 6 named records, got %d", len(got))
		}
	})

	t.Run("Filter skipped when it would starve the pool", func(t *testing.T) {
		// Only 2 named records; dropping the rest would go below the floor
		pool := makeQualityPool(2, 7)
		if got := applyQualityFilters(pool); len(got) != 9 {
			t.Errorf("starved filter should be skipped, got %d of 9", len(got))
		}
	})
}
