package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/geo"
	"github.com/jetscan-audio/jetscan/pkg/refdata"
)

// OpenSkyBaseURL is the OpenSky Network REST API base URL
const OpenSkyBaseURL = "https://opensky-network.org/api"

// OpenSky is the keyless baseline provider. It is always configured, so the
// fallback chain never ends without at least one vendor to try. Anonymous
// access is rate limited upstream and state vectors carry no route data, so
// observations from here narrate position and type only.
type OpenSky struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenSky creates the anonymous OpenSky provider.
func NewOpenSky() *OpenSky {
	return &OpenSky{
		baseURL:    OpenSkyBaseURL,
		httpClient: newHTTPClient(DefaultTimeout),
	}
}

// WithBaseURL overrides the API endpoint (useful for testing).
func (o *OpenSky) WithBaseURL(u string) *OpenSky {
	o.baseURL = u
	return o
}

func (o *OpenSky) Name() string        { return "opensky" }
func (o *OpenSky) DisplayName() string { return "OpenSky Network" }

func (o *OpenSky) IsConfigured() (bool, string) {
	return true, ""
}

// openSkyResponse mirrors the JSON shape returned by /states/all. Each state
// vector is a positional array, not an object.
type openSkyResponse struct {
	Time   int64           `json:"time"`
	States [][]interface{} `json:"states"`
}

// State vector indices per the OpenSky REST documentation.
const (
	osIdxICAO24      = 0
	osIdxCallsign    = 1
	osIdxLastContact = 4
	osIdxLongitude   = 5
	osIdxLatitude    = 6
	osIdxBaroAltM    = 7
	osIdxOnGround    = 8
	osIdxVelocityMS  = 9
	osMinStateFields = 10
)

// Fetch queries /states/all with a bounding box and normalizes airborne
// state vectors.
func (o *OpenSky) Fetch(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]flight.Observation, string) {
	box := geo.BoxAround(lat, lng, radiusKm)

	params := url.Values{}
	params.Set("lamin", fmt.Sprintf("%.3f", box.South))
	params.Set("lamax", fmt.Sprintf("%.3f", box.North))
	params.Set("lomin", fmt.Sprintf("%.3f", box.West))
	params.Set("lomax", fmt.Sprintf("%.3f", box.East))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/states/all?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Sprintf("OpenSky request build failed: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		log.Printf("opensky: request failed: %v", err)
		return nil, fmt.Sprintf("OpenSky network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("opensky: HTTP %d", resp.StatusCode)
		return nil, fmt.Sprintf("OpenSky API returned HTTP %d", resp.StatusCode)
	}

	var parsed openSkyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Sprintf("OpenSky response parse failed: %v", err)
	}

	observations := make([]flight.Observation, 0, len(parsed.States))

	for _, s := range parsed.States {
		if len(s) < osMinStateFields {
			continue
		}
		if osBool(s[osIdxOnGround]) {
			continue
		}

		planeLat, latOK := osFloat(s[osIdxLatitude])
		planeLng, lngOK := osFloat(s[osIdxLongitude])
		if !latOK || !lngOK {
			continue
		}

		distance := geo.Distance(lat, lng, planeLat, planeLng)
		if distance > radiusKm {
			continue
		}

		callsign := strings.TrimSpace(osString(s[osIdxCallsign]))
		if callsign == "" {
			continue
		}

		// A transponder callsign's first three letters are usually the
		// operator ICAO code.
		airlineICAO := ""
		if len(callsign) >= 3 {
			if _, ok := refdata.AirlineByICAO(callsign[:3]); ok {
				airlineICAO = callsign[:3]
			}
		}
		if isIgnoredOperator(airlineICAO) {
			continue
		}

		altFt := 0
		if m, ok := osFloat(s[osIdxBaroAltM]); ok {
			if ft := m * geo.MetersToFeet; ft >= minReportedAltitudeFt {
				altFt = int(math.Round(ft))
			}
		}

		speedKt := 0
		if ms, ok := osFloat(s[osIdxVelocityMS]); ok {
			if kt := ms * 3.6 / geo.KnotsToKmh; kt >= minReportedSpeedKt {
				speedKt = int(math.Round(kt))
			}
		}

		var updated int64
		if t, ok := osFloat(s[osIdxLastContact]); ok {
			updated = int64(t)
		}

		observations = append(observations, flight.Observation{
			ICAO24:          osString(s[osIdxICAO24]),
			Callsign:        callsign,
			AirlineICAO:     airlineICAO,
			AirlineName:     refdata.AirlineName(airlineICAO),
			CargoOperator:   refdata.IsCargoAirline(airlineICAO),
			PrivateOperator: refdata.IsPrivateAirline(airlineICAO),
			AircraftName:    refdata.AircraftName(""),
			Latitude:        planeLat,
			Longitude:       planeLng,
			AltitudeFt:      altFt,
			GroundSpeedKt:   speedKt,
			DistanceKm:      int(math.Round(distance)),
			DistanceMiles:   int(math.Round(distance * geo.KmToMiles)),
			Updated:         updated,
		})
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].DistanceKm < observations[j].DistanceKm
	})

	if lim := fetchLimit(limit); len(observations) > lim {
		observations = observations[:lim]
	}

	log.Printf("opensky: %d aircraft candidates", len(observations))
	if len(observations) == 0 {
		return nil, ""
	}
	return observations, ""
}

func osString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func osFloat(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func osBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
