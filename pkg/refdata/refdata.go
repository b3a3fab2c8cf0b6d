// Package refdata provides lookups over the static aviation reference data:
// airports by IATA code, airlines by ICAO code, aircraft types by ICAO
// type designator, and destination cities by display name.
//
// All lookups tolerate unknown codes by returning a clearly marked sentinel
// (or ok=false); they never return errors. The JSON databases are embedded
// at build time so the binary has no runtime data dependencies.
package refdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
)

//go:embed airports.json airlines.json cities.json
var dataFS embed.FS

// Airport describes one airport record from the embedded database.
type Airport struct {
	// Name is the full airport name
	Name string `json:"name"`

	// City is the primary city served
	City string `json:"city"`

	// State is the state or province, empty outside federated countries
	State string `json:"state,omitempty"`

	// Country is the full country name
	Country string `json:"country"`

	// Lat and Lon are the airfield reference point in decimal degrees
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Airline describes one operator record from the embedded database.
type Airline struct {
	// Name is the operator display name
	Name string `json:"name"`

	// IATA is the 2-character marketing code, empty for some operators
	IATA string `json:"iata,omitempty"`

	// Cargo marks freight-only operators
	Cargo bool `json:"cargo,omitempty"`

	// Private marks private/charter operators
	Private bool `json:"private,omitempty"`
}

// City describes one city record from the embedded database, keyed by the
// city display name as it appears in airport records.
type City struct {
	// City is the display name
	City string `json:"city"`

	// State is the state or province, empty outside federated countries
	State string `json:"state,omitempty"`

	// Country is the full country name
	Country string `json:"country"`

	// Population is the city-proper population estimate
	Population int `json:"population"`

	// FunFacts are short narration-ready trivia lines
	FunFacts []string `json:"fun_facts"`
}

var (
	loadOnce sync.Once
	airports map[string]Airport
	airlines map[string]Airline
	cities   map[string]City
)

// load parses the embedded databases once. A malformed embed is a build
// defect, so parse failures log and leave the maps empty rather than crash.
func load() {
	loadOnce.Do(func() {
		airports = make(map[string]Airport)
		airlines = make(map[string]Airline)
		cities = make(map[string]City)

		if data, err := dataFS.ReadFile("airports.json"); err == nil {
			if err := json.Unmarshal(data, &airports); err != nil {
				log.Printf("refdata: failed to parse airports.json: %v", err)
			}
		}
		if data, err := dataFS.ReadFile("airlines.json"); err == nil {
			if err := json.Unmarshal(data, &airlines); err != nil {
				log.Printf("refdata: failed to parse airlines.json: %v", err)
			}
		}
		if data, err := dataFS.ReadFile("cities.json"); err == nil {
			if err := json.Unmarshal(data, &cities); err != nil {
				log.Printf("refdata: failed to parse cities.json: %v", err)
			}
		}
	})
}

// AirportByIATA returns the airport record for a 3-letter IATA code.
// Codes are normalized to upper case. ok is false for unknown codes.
func AirportByIATA(iata string) (Airport, bool) {
	if iata == "" {
		return Airport{}, false
	}
	load()
	ap, ok := airports[strings.ToUpper(strings.TrimSpace(iata))]
	return ap, ok
}

// CityCountry returns the city and country for an airport IATA code, or
// empty strings when unknown.
func CityCountry(iata string) (city, country string) {
	ap, ok := AirportByIATA(iata)
	if !ok {
		return "", ""
	}
	return ap.City, ap.Country
}

// CityByName returns the city record for a display name. Names are matched
// exactly first, then case-insensitively. ok is false for unknown names.
func CityByName(name string) (City, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return City{}, false
	}
	load()
	if c, ok := cities[name]; ok {
		return c, true
	}
	for key, c := range cities {
		if strings.EqualFold(key, name) {
			return c, true
		}
	}
	return City{}, false
}

// CityFacts returns the trivia lines for a city name, or an empty list for
// unknown names.
func CityFacts(name string) []string {
	c, ok := CityByName(name)
	if !ok || c.FunFacts == nil {
		return []string{}
	}
	return c.FunFacts
}

// AirlineByICAO returns the airline record for a 3-letter ICAO code.
// ok is false for unknown codes.
func AirlineByICAO(icao string) (Airline, bool) {
	if icao == "" {
		return Airline{}, false
	}
	load()
	al, ok := airlines[strings.ToUpper(strings.TrimSpace(icao))]
	return al, ok
}

// AirlineName returns the operator display name for an ICAO code, or ""
// when unknown.
func AirlineName(icao string) string {
	al, ok := AirlineByICAO(icao)
	if !ok {
		return ""
	}
	return al.Name
}

// IsCargoAirline reports whether the ICAO code belongs to a freight-only
// operator. Unknown codes are not cargo.
func IsCargoAirline(icao string) bool {
	al, ok := AirlineByICAO(icao)
	return ok && al.Cargo
}

// IsPrivateAirline reports whether the ICAO code belongs to a private or
// charter operator. Unknown codes are not private.
func IsPrivateAirline(icao string) bool {
	al, ok := AirlineByICAO(icao)
	return ok && al.Private
}

// AircraftName converts an ICAO type designator to a human-readable name.
// Unknown designators produce a marked sentinel rather than an error.
func AircraftName(icaoType string) string {
	if icaoType == "" {
		return "Unknown Aircraft"
	}
	name, ok := aircraftTypes[strings.ToUpper(strings.TrimSpace(icaoType))]
	if !ok {
		return fmt.Sprintf("Unknown Aircraft (%s)", icaoType)
	}
	return name
}

// PassengerCapacity returns the typical seat count for an ICAO type
// designator, 0 when unknown.
func PassengerCapacity(icaoType string) int {
	return passengerCapacity[strings.ToUpper(strings.TrimSpace(icaoType))]
}

// CruiseSpeedKt returns a cruise speed estimate in knots for an ICAO type
// designator, falling back to DefaultCruiseSpeedKt for unknown types.
func CruiseSpeedKt(icaoType string) float64 {
	if kt, ok := cruiseSpeedKt[strings.ToUpper(strings.TrimSpace(icaoType))]; ok {
		return kt
	}
	return DefaultCruiseSpeedKt
}

// DefaultCruiseSpeedKt is the assumed cruise speed for unknown aircraft
// types, a reasonable jet transport average.
const DefaultCruiseSpeedKt = 450.0
