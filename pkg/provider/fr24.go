package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/geo"
	"github.com/jetscan-audio/jetscan/pkg/refdata"
	"github.com/jetscan-audio/jetscan/pkg/route"
)

// FR24BaseURL is the Flightradar24 commercial API base URL
const FR24BaseURL = "https://fr24api.flightradar24.com"

// FR24 queries the Flightradar24 live positions endpoint. The categories
// filter restricts results to passenger aircraft at the vendor side.
type FR24 struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewFR24 creates a Flightradar24 provider. An empty API key leaves the
// provider registered but unconfigured.
func NewFR24(apiKey string) *FR24 {
	return &FR24{
		apiKey:     apiKey,
		baseURL:    FR24BaseURL,
		httpClient: newHTTPClient(DefaultTimeout),
	}
}

// WithBaseURL overrides the API endpoint (useful for testing).
func (f *FR24) WithBaseURL(u string) *FR24 {
	f.baseURL = u
	return f
}

func (f *FR24) Name() string        { return "fr24" }
func (f *FR24) DisplayName() string { return "FlightRadar24" }

func (f *FR24) IsConfigured() (bool, string) {
	if f.apiKey == "" {
		return false, "FlightRadar24 API key not configured"
	}
	return true, ""
}

// fr24Flight mirrors one record of the full live positions response.
type fr24Flight struct {
	Hex       string   `json:"hex"`
	Callsign  string   `json:"callsign"`
	Flight    string   `json:"flight"`
	PaintedAs string   `json:"painted_as"`
	Reg       string   `json:"reg"`
	Type      string   `json:"type"`
	OrigIATA  string   `json:"orig_iata"`
	DestIATA  string   `json:"dest_iata"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	AltFt     int      `json:"alt"`
	GSpeedKt  int      `json:"gspeed"`
	ETA       string   `json:"eta"`
}

type fr24Response struct {
	Data []fr24Flight `json:"data"`
}

// Fetch queries FR24 with a bounding box and normalizes the response. The
// painted_as field already carries the marketing brand, so no operator
// override pass is needed here.
func (f *FR24) Fetch(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]flight.Observation, string) {
	if ok, reason := f.IsConfigured(); !ok {
		return nil, reason
	}

	box := geo.BoxAround(lat, lng, radiusKm)

	params := url.Values{}
	params.Set("bounds", fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", box.North, box.South, box.West, box.East))
	params.Set("limit", fmt.Sprintf("%d", fetchLimit(limit)))
	params.Set("categories", "P")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.baseURL+"/api/live/flight-positions/full?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Sprintf("FlightRadar24 request build failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", "v1")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Printf("fr24: request failed: %v", err)
		return nil, fmt.Sprintf("FlightRadar24 network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		log.Printf("fr24: HTTP %d: %s", resp.StatusCode, body)
		return nil, fmt.Sprintf("FlightRadar24 API returned HTTP %d", resp.StatusCode)
	}

	var parsed fr24Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Sprintf("FlightRadar24 response parse failed: %v", err)
	}

	observations := make([]flight.Observation, 0, len(parsed.Data))
	user := geo.Point{Latitude: lat, Longitude: lng}

	for _, rec := range parsed.Data {
		if rec.Lat == nil || rec.Lon == nil {
			continue
		}

		distance := geo.Distance(lat, lng, *rec.Lat, *rec.Lon)
		if distance > radiusKm {
			continue
		}

		callsign := strings.TrimSpace(rec.Callsign)
		if callsign == "" {
			continue
		}

		// Same staleness guard as the AirLabs fetch: a reported route
		// that cannot pass near the user means the record is bad.
		origin, originOK := refdata.AirportByIATA(rec.OrigIATA)
		dest, destOK := refdata.AirportByIATA(rec.DestIATA)
		if originOK && destOK {
			plausible := route.IsPlausible(user,
				geo.Point{Latitude: origin.Lat, Longitude: origin.Lon},
				geo.Point{Latitude: dest.Lat, Longitude: dest.Lon})
			if !plausible {
				log.Printf("fr24: dropping %s, reported route %s-%s does not pass near user", callsign, rec.OrigIATA, rec.DestIATA)
				continue
			}
		}

		originCity, originCountry := refdata.CityCountry(rec.OrigIATA)
		destCity, destCountry := refdata.CityCountry(rec.DestIATA)

		observations = append(observations, flight.Observation{
			ICAO24:             rec.Hex,
			Callsign:           callsign,
			FlightNumber:       rec.Flight,
			AirlineICAO:        rec.PaintedAs,
			AirlineName:        refdata.AirlineName(rec.PaintedAs),
			CargoOperator:      refdata.IsCargoAirline(rec.PaintedAs),
			PrivateOperator:    refdata.IsPrivateAirline(rec.PaintedAs),
			Registration:       rec.Reg,
			AircraftICAO:       rec.Type,
			AircraftName:       refdata.AircraftName(rec.Type),
			PassengerCapacity:  refdata.PassengerCapacity(rec.Type),
			OriginIATA:         rec.OrigIATA,
			OriginCity:         originCity,
			OriginCountry:      originCountry,
			DestinationIATA:    rec.DestIATA,
			DestinationCity:    destCity,
			DestinationCountry: destCountry,
			Latitude:           *rec.Lat,
			Longitude:          *rec.Lon,
			AltitudeFt:         rec.AltFt,
			GroundSpeedKt:      rec.GSpeedKt,
			DistanceKm:         int(math.Round(distance)),
			DistanceMiles:      int(math.Round(distance * geo.KmToMiles)),
			ETA:                rec.ETA,
		})
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].DistanceKm < observations[j].DistanceKm
	})

	log.Printf("fr24: %d aircraft candidates", len(observations))
	if len(observations) == 0 {
		return nil, ""
	}
	return observations, ""
}
