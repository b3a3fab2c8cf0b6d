// Package flight defines the aircraft observation model shared by the
// live-data providers, the diversity selector, and the cache documents.
package flight

import (
	"time"
)

// Observation is a single live aircraft sighting from a provider.
// JSON tags define the cache document format, so they must stay stable.
type Observation struct {
	// ICAO24 is the 24-bit ICAO transponder hex code (e.g., "a12345")
	ICAO24 string `json:"icao24,omitempty"`

	// Callsign is the radio callsign or flight identifier
	Callsign string `json:"callsign"`

	// FlightNumber is the passenger-facing flight number (e.g., "DL123")
	FlightNumber string `json:"flight_number,omitempty"`

	// AirlineICAO is the 3-letter operator ICAO code after overrides
	AirlineICAO string `json:"airline_icao,omitempty"`

	// AirlineName is the resolved operator display name, empty if unknown
	AirlineName string `json:"airline_name,omitempty"`

	// CargoOperator marks freight-only operators
	CargoOperator bool `json:"is_cargo_operator"`

	// PrivateOperator marks private/charter operators
	PrivateOperator bool `json:"is_private_operator"`

	// Registration is the airframe tail number
	Registration string `json:"aircraft_registration,omitempty"`

	// AircraftICAO is the ICAO type designator (e.g., "B738")
	AircraftICAO string `json:"aircraft_icao,omitempty"`

	// AircraftName is the human-readable aircraft type
	AircraftName string `json:"aircraft"`

	// PassengerCapacity is the typical seat count for the type, 0 if unknown
	PassengerCapacity int `json:"passenger_capacity,omitempty"`

	// OriginIATA and OriginCity/OriginCountry describe the departure airport
	OriginIATA    string `json:"origin_airport,omitempty"`
	OriginCity    string `json:"origin_city,omitempty"`
	OriginCountry string `json:"origin_country,omitempty"`

	// DestinationIATA and city/country describe the arrival airport
	DestinationIATA    string `json:"destination_airport,omitempty"`
	DestinationCity    string `json:"destination_city,omitempty"`
	DestinationCountry string `json:"destination_country,omitempty"`

	// Latitude and Longitude are the reported position in decimal degrees
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// AltitudeFt is the reported altitude in feet, 0 when unreported or
	// below the 1000 ft reporting floor
	AltitudeFt int `json:"altitude,omitempty"`

	// GroundSpeedKt is the reported ground speed in knots, 0 when
	// unreported or below the 100 kt reporting floor
	GroundSpeedKt int `json:"velocity,omitempty"`

	// DistanceKm is the great-circle distance from the observer
	DistanceKm int `json:"distance_km"`

	// DistanceMiles is DistanceKm converted to statute miles
	DistanceMiles int `json:"distance_miles"`

	// Status is the provider-reported flight status, if any
	Status string `json:"status,omitempty"`

	// ETA is the arrival estimate in RFC 3339 UTC, provider-reported or
	// derived from remaining distance and cruise speed
	ETA string `json:"eta,omitempty"`

	// Updated is the provider-side position timestamp (unix seconds)
	Updated int64 `json:"updated,omitempty"`
}

// HasPosition reports whether the observation carries usable coordinates.
func (o *Observation) HasPosition() bool {
	// (0, 0) is the null island sentinel vendors use for missing fixes
	return !(o.Latitude == 0 && o.Longitude == 0) &&
		o.Latitude >= -90 && o.Latitude <= 90 &&
		o.Longitude >= -180 && o.Longitude <= 180
}

// HasRoute reports whether both route endpoints resolved to IATA codes.
func (o *Observation) HasRoute() bool {
	return o.OriginIATA != "" && o.DestinationIATA != ""
}

// Identifier returns the best available flight identifier for narration and
// logging, falling back from flight number to callsign to hex code.
func (o *Observation) Identifier() string {
	if o.FlightNumber != "" {
		return o.FlightNumber
	}
	if o.Callsign != "" {
		return o.Callsign
	}
	if o.ICAO24 != "" {
		return o.ICAO24
	}
	return "unknown flight"
}

// EstimateETA returns an RFC 3339 arrival estimate from remaining distance
// and a cruise speed in km/h, plus a fixed approach buffer. Returns "" when
// the inputs cannot support an estimate.
func EstimateETA(distanceKm, cruiseSpeedKmh float64, now time.Time) string {
	if distanceKm <= 0 || cruiseSpeedKmh <= 0 {
		return ""
	}

	travelHours := distanceKm/cruiseSpeedKmh + approachBufferMinutes/60.0
	eta := now.UTC().Add(time.Duration(travelHours * float64(time.Hour)))
	return eta.Format(time.RFC3339)
}

// approachBufferMinutes pads ETA estimates for descent and approach.
const approachBufferMinutes = 30.0
