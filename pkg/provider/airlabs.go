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
	"time"

	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/geo"
	"github.com/jetscan-audio/jetscan/pkg/refdata"
	"github.com/jetscan-audio/jetscan/pkg/route"
)

const (
	// AirLabsBaseURL is the AirLabs API v9 base URL
	AirLabsBaseURL = "https://airlabs.co/api/v9"

	// minReportedAltitudeFt suppresses altitude callouts for aircraft low
	// enough that the reading is likely a ground or climb-out artifact
	minReportedAltitudeFt = 1000

	// minReportedSpeedKt suppresses speed callouts below taxi/approach range
	minReportedSpeedKt = 100

	// qualityFilterFloor keeps quality filtering from starving the pool
	qualityFilterFloor = 5
)

// AirLabs queries the AirLabs real-time flights endpoint.
type AirLabs struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewAirLabs creates an AirLabs provider. An empty API key leaves the
// provider registered but unconfigured.
func NewAirLabs(apiKey string) *AirLabs {
	return &AirLabs{
		apiKey:     apiKey,
		baseURL:    AirLabsBaseURL,
		httpClient: newHTTPClient(DefaultTimeout),
		now:        time.Now,
	}
}

// WithBaseURL overrides the API endpoint (useful for testing).
func (a *AirLabs) WithBaseURL(u string) *AirLabs {
	a.baseURL = u
	return a
}

func (a *AirLabs) Name() string        { return "airlabs" }
func (a *AirLabs) DisplayName() string { return "AirLabs" }

func (a *AirLabs) IsConfigured() (bool, string) {
	if a.apiKey == "" {
		return false, "AirLabs API key not configured"
	}
	return true, ""
}

// airLabsFlight mirrors one record of the AirLabs /flights response.
// Position and kinematic fields are pointers because the vendor omits them
// for some aircraft.
type airLabsFlight struct {
	Hex          string   `json:"hex"`
	FlightICAO   string   `json:"flight_icao"`
	FlightIATA   string   `json:"flight_iata"`
	FlightNumber string   `json:"flight_number"`
	AirlineICAO  string   `json:"airline_icao"`
	AirlineIATA  string   `json:"airline_iata"`
	DepIATA      string   `json:"dep_iata"`
	ArrIATA      string   `json:"arr_iata"`
	RegNumber    string   `json:"reg_number"`
	AircraftICAO string   `json:"aircraft_icao"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	AltMeters    *float64 `json:"alt"`
	SpeedKmh     *float64 `json:"speed"`
	Status       string   `json:"status"`
	Updated      int64    `json:"updated"`
}

type airLabsResponse struct {
	Response []airLabsFlight `json:"response"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch queries AirLabs with a bounding box around the user and normalizes
// en-route flights into observations. Records with positions implausible for
// their reported route are dropped as stale vendor data.
func (a *AirLabs) Fetch(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]flight.Observation, string) {
	if ok, reason := a.IsConfigured(); !ok {
		return nil, reason
	}

	box := geo.BoxAround(lat, lng, radiusKm)

	params := url.Values{}
	params.Set("bbox", fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", box.South, box.West, box.North, box.East))
	params.Set("limit", fmt.Sprintf("%d", fetchLimit(limit)))
	params.Set("api_key", a.apiKey)
	params.Set("_fields", "hex,flight_icao,flight_iata,flight_number,airline_icao,airline_iata,dep_iata,arr_iata,reg_number,aircraft_icao,lat,lng,alt,speed,status,updated")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/flights?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Sprintf("AirLabs request build failed: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Printf("airlabs: request failed: %v", err)
		return nil, fmt.Sprintf("AirLabs network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		log.Printf("airlabs: HTTP %d: %s", resp.StatusCode, body)
		return nil, fmt.Sprintf("AirLabs API returned HTTP %d", resp.StatusCode)
	}

	var parsed airLabsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Sprintf("AirLabs response parse failed: %v", err)
	}
	if parsed.Error != nil {
		log.Printf("airlabs: API error payload: %s", parsed.Error.Message)
		msg := parsed.Error.Message
		if msg == "" {
			msg = "AirLabs API returned an error"
		}
		return nil, msg
	}

	user := geo.Point{Latitude: lat, Longitude: lng}
	observations := make([]flight.Observation, 0, len(parsed.Response))

	for _, f := range parsed.Response {
		if strings.ToLower(strings.TrimSpace(f.Status)) != "en-route" {
			continue
		}
		if f.Lat == nil || f.Lng == nil {
			continue
		}

		distance := geo.Distance(lat, lng, *f.Lat, *f.Lng)
		if distance > radiusKm {
			// Vendors sometimes answer with a wider box than requested
			continue
		}

		callsign := f.FlightICAO
		if callsign == "" {
			callsign = f.FlightNumber
		}
		if callsign == "" {
			callsign = f.Hex
		}

		// A reported route that cannot pass near the user means the
		// position or route data is stale. Drop it rather than narrate
		// a flight that is not overhead.
		origin, originOK := refdata.AirportByIATA(f.DepIATA)
		dest, destOK := refdata.AirportByIATA(f.ArrIATA)
		if originOK && destOK {
			plausible := route.IsPlausible(user,
				geo.Point{Latitude: origin.Lat, Longitude: origin.Lon},
				geo.Point{Latitude: dest.Lat, Longitude: dest.Lon})
			if !plausible {
				log.Printf("airlabs: dropping %s, reported route %s-%s does not pass near user", callsign, f.DepIATA, f.ArrIATA)
				continue
			}
		}

		airlineICAO, airlineIATA := resolveOperator(f.AirlineICAO, f.AirlineIATA, f.FlightIATA)
		if isIgnoredOperator(airlineICAO) {
			continue
		}

		flightNumber := f.FlightIATA
		if flightNumber == "" && airlineIATA != "" && f.FlightNumber != "" {
			flightNumber = airlineIATA + f.FlightNumber
		}
		if flightNumber == "" {
			flightNumber = f.FlightNumber
		}

		originCity, originCountry := refdata.CityCountry(f.DepIATA)
		destCity, destCountry := refdata.CityCountry(f.ArrIATA)

		eta := ""
		if destOK {
			distToDest := geo.Distance(*f.Lat, *f.Lng, dest.Lat, dest.Lon)
			cruiseKmh := refdata.CruiseSpeedKt(f.AircraftICAO) * geo.KnotsToKmh
			eta = flight.EstimateETA(distToDest, cruiseKmh, a.now())
		}

		obs := flight.Observation{
			ICAO24:             f.Hex,
			Callsign:           callsign,
			FlightNumber:       flightNumber,
			AirlineICAO:        airlineICAO,
			AirlineName:        refdata.AirlineName(airlineICAO),
			CargoOperator:      refdata.IsCargoAirline(airlineICAO),
			PrivateOperator:    refdata.IsPrivateAirline(airlineICAO),
			Registration:       f.RegNumber,
			AircraftICAO:       f.AircraftICAO,
			AircraftName:       refdata.AircraftName(f.AircraftICAO),
			PassengerCapacity:  refdata.PassengerCapacity(f.AircraftICAO),
			OriginIATA:         f.DepIATA,
			OriginCity:         originCity,
			OriginCountry:      originCountry,
			DestinationIATA:    f.ArrIATA,
			DestinationCity:    destCity,
			DestinationCountry: destCountry,
			Latitude:           *f.Lat,
			Longitude:          *f.Lng,
			AltitudeFt:         altitudeFromMeters(f.AltMeters),
			GroundSpeedKt:      speedFromKmh(f.SpeedKmh),
			DistanceKm:         int(math.Round(distance)),
			DistanceMiles:      int(math.Round(distance * geo.KmToMiles)),
			Status:             f.Status,
			ETA:                eta,
			Updated:            f.Updated,
		}

		observations = append(observations, obs)
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].DistanceKm < observations[j].DistanceKm
	})

	observations = applyQualityFilters(observations)

	log.Printf("airlabs: %d aircraft candidates", len(observations))
	if len(observations) == 0 {
		return nil, ""
	}
	return observations, ""
}

// altitudeFromMeters converts a vendor altitude in meters to feet, dropping
// readings below the reporting floor.
func altitudeFromMeters(m *float64) int {
	if m == nil {
		return 0
	}
	ft := *m * geo.MetersToFeet
	if ft < minReportedAltitudeFt {
		return 0
	}
	return int(math.Round(ft))
}

// speedFromKmh converts a vendor ground speed in km/h to knots, dropping
// readings below the reporting floor.
func speedFromKmh(kmh *float64) int {
	if kmh == nil {
		return 0
	}
	kt := *kmh / geo.KnotsToKmh
	if kt < minReportedSpeedKt {
		return 0
	}
	return int(math.Round(kt))
}

// applyQualityFilters progressively tightens the candidate pool when it is
// large enough to afford it. Each predicate applies only if at least
// qualityFilterFloor candidates survive it.
func applyQualityFilters(observations []flight.Observation) []flight.Observation {
	if len(observations) <= qualityFilterFloor {
		return observations
	}

	predicates := []func(o flight.Observation) bool{
		func(o flight.Observation) bool { return o.AirlineName != "" },
		func(o flight.Observation) bool { return o.GroundSpeedKt > 0 },
	}

	for _, keep := range predicates {
		filtered := make([]flight.Observation, 0, len(observations))
		for _, o := range observations {
			if keep(o) {
				filtered = append(filtered, o)
			}
		}
		if len(filtered) < qualityFilterFloor {
			break
		}
		observations = filtered
	}

	return observations
}
