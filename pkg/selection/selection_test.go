package selection

import (
	"testing"

	"github.com/jetscan-audio/jetscan/pkg/flight"
)

// User position for all tests: roughly Weston, Connecticut.
const (
	userLat = 41.2
	userLng = -73.38
)

func passenger(callsign, destIATA, destCity, destCountry string, distanceKm int) flight.Observation {
	return flight.Observation{
		Callsign:           callsign,
		DestinationIATA:    destIATA,
		DestinationCity:    destCity,
		DestinationCountry: destCountry,
		Latitude:           41.0,
		Longitude:          -73.5,
		DistanceKm:         distanceKm,
		DistanceMiles:      int(float64(distanceKm) * 0.621371),
	}
}

func privateJet(callsign string, distanceKm int) flight.Observation {
	obs := passenger(callsign, "TEB", "Teterboro", "United States", distanceKm)
	obs.PrivateOperator = true
	return obs
}

func cargo(callsign string, distanceKm int) flight.Observation {
	obs := passenger(callsign, "SDF", "Louisville", "United States", distanceKm)
	obs.CargoOperator = true
	return obs
}

// TestSelectCardinality verifies output size bounds for pools of any size.
func TestSelectCardinality(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Empty pool", func(t *testing.T) {
		got := Select(nil, userLat, userLng, cfg.MaxResults, cfg)
		if len(got) != 0 {
			t.Errorf("Expected empty selection, got %d", len(got))
		}
	})

	t.Run("Pool smaller than limit", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("UAL1", "LHR", "London", "United Kingdom", 20),
			passenger("DAL2", "CDG", "Paris", "France", 40),
		}
		got := Select(pool, userLat, userLng, cfg.MaxResults, cfg)
		if len(got) != 2 {
			t.Errorf("Expected 2 aircraft from pool of 2, got %d", len(got))
		}
	})

	t.Run("Pool larger than limit", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("UAL1", "LHR", "London", "United Kingdom", 20),
			passenger("DAL2", "CDG", "Paris", "France", 40),
			passenger("BAW3", "FRA", "Frankfurt", "Germany", 60),
			passenger("AFR4", "AMS", "Amsterdam", "Netherlands", 80),
			passenger("KLM5", "MAD", "Madrid", "Spain", 90),
		}
		got := Select(pool, userLat, userLng, cfg.MaxResults, cfg)
		if len(got) != 3 {
			t.Errorf("Expected exactly 3 aircraft, got %d", len(got))
		}
	})

	t.Run("Pre-generation limit of 5", func(t *testing.T) {
		pool := make([]flight.Observation, 0, 8)
		cities := [][3]string{
			{"LHR", "London", "United Kingdom"},
			{"CDG", "Paris", "France"},
			{"FRA", "Frankfurt", "Germany"},
			{"AMS", "Amsterdam", "Netherlands"},
			{"MAD", "Madrid", "Spain"},
			{"FCO", "Rome", "Italy"},
			{"VIE", "Vienna", "Austria"},
			{"ZRH", "Zurich", "Switzerland"},
		}
		for i, c := range cities {
			pool = append(pool, passenger("FLT"+c[0], c[0], c[1], c[2], 10+i*10))
		}
		got := Select(pool, userLat, userLng, cfg.PreGenMax, cfg)
		if len(got) != 5 {
			t.Errorf("Expected 5 aircraft for pre-generation, got %d", len(got))
		}
	})
}

// TestSelectDestinationDiversity verifies the country-then-city passes.
func TestSelectDestinationDiversity(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Three distinct countries available", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("A1", "LHR", "London", "United Kingdom", 10),
			passenger("A2", "LGW", "London", "United Kingdom", 20),
			passenger("A3", "CDG", "Paris", "France", 30),
			passenger("A4", "ORY", "Paris", "France", 40),
			passenger("A5", "FRA", "Frankfurt", "Germany", 50),
		}
		got := Select(pool, userLat, userLng, 3, cfg)
		if len(got) != 3 {
			t.Fatalf("Expected 3 aircraft, got %d", len(got))
		}

		countries := make(map[string]bool)
		for _, obs := range got {
			countries[obs.DestinationCountry] = true
		}
		if len(countries) != 3 {
			t.Errorf("Expected 3 distinct destination countries, got %v", countries)
		}
	})

	t.Run("City pass fills when countries repeat", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("A1", "JFK", "New York", "United States", 10),
			passenger("A2", "BOS", "Boston", "United States", 20),
			passenger("A3", "ORD", "Chicago", "United States", 30),
		}
		got := Select(pool, userLat, userLng, 3, cfg)
		if len(got) != 3 {
			t.Fatalf("Expected 3 aircraft, got %d", len(got))
		}

		cities := make(map[string]bool)
		for _, obs := range got {
			cities[obs.DestinationCity] = true
		}
		if len(cities) != 3 {
			t.Errorf("Expected 3 distinct destination cities, got %v", cities)
		}
	})

	t.Run("Duplicate destinations only", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("A1", "JFK", "New York", "United States", 10),
			passenger("A2", "JFK", "New York", "United States", 20),
			passenger("A3", "JFK", "New York", "United States", 30),
		}
		got := Select(pool, userLat, userLng, 3, cfg)
		// Pass 3 backfills even with zero diversity
		if len(got) != 3 {
			t.Errorf("Expected 3 aircraft via backfill, got %d", len(got))
		}
	})
}

// TestSelectOrdering verifies the final re-sort by distance.
func TestSelectOrdering(t *testing.T) {
	cfg := DefaultConfig()

	// Far-destination traffic ranks first for picking but the final list
	// is ordered by physical distance from the user.
	pool := []flight.Observation{
		passenger("NEAR", "BDL", "Hartford", "United States", 5),
		passenger("MID", "LHR", "London", "United Kingdom", 50),
		passenger("FAR", "NRT", "Tokyo", "Japan", 90),
	}
	got := Select(pool, userLat, userLng, 3, cfg)
	if len(got) != 3 {
		t.Fatalf("Expected 3 aircraft, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Errorf("Selection not sorted by distance: %d before %d",
				got[i-1].DistanceKm, got[i].DistanceKm)
		}
	}
}

// TestSelectSpecialOperatorInsertion verifies private/cargo slotting.
func TestSelectSpecialOperatorInsertion(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Two passengers and one private", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("PAX1", "LHR", "London", "United Kingdom", 10),
			privateJet("PVT1", 15),
			passenger("PAX2", "CDG", "Paris", "France", 20),
		}
		got := Select(pool, userLat, userLng, 3, cfg)
		if len(got) != 3 {
			t.Fatalf("Expected 3 aircraft, got %d", len(got))
		}
		if got[0].Callsign != "PAX1" {
			t.Errorf("Expected closest passenger first, got %s", got[0].Callsign)
		}
		if got[1].Callsign != "PVT1" {
			t.Errorf("Expected private jet at position 2, got %s", got[1].Callsign)
		}
		if got[2].Callsign != "PAX2" {
			t.Errorf("Expected second passenger last, got %s", got[2].Callsign)
		}
	})

	t.Run("One passenger appends up to two specials", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("PAX1", "LHR", "London", "United Kingdom", 10),
			privateJet("PVT1", 15),
			privateJet("PVT2", 25),
			privateJet("PVT3", 35),
		}
		got := Select(pool, userLat, userLng, 3, cfg)
		if len(got) != 3 {
			t.Fatalf("Expected 3 aircraft, got %d", len(got))
		}
		if got[0].Callsign != "PAX1" {
			t.Errorf("Expected passenger first, got %s", got[0].Callsign)
		}
	})

	t.Run("No passengers uses specials directly", func(t *testing.T) {
		pool := []flight.Observation{
			privateJet("PVT1", 15),
			privateJet("PVT2", 25),
		}
		got := Select(pool, userLat, userLng, 3, cfg)
		if len(got) != 2 {
			t.Fatalf("Expected 2 aircraft, got %d", len(got))
		}
	})

	t.Run("Cargo excluded by default", func(t *testing.T) {
		pool := []flight.Observation{
			passenger("PAX1", "LHR", "London", "United Kingdom", 10),
			cargo("GTI1", 15),
			passenger("PAX2", "CDG", "Paris", "France", 20),
		}
		got := Select(pool, userLat, userLng, 3, cfg)
		for _, obs := range got {
			if obs.Callsign == "GTI1" {
				t.Error("Cargo aircraft selected with IncludeCargo off")
			}
		}
		if len(got) != 2 {
			t.Errorf("Expected the 2 passenger aircraft only, got %d", len(got))
		}
	})

	t.Run("Cargo admitted when toggled on", func(t *testing.T) {
		cargoCfg := cfg
		cargoCfg.IncludeCargo = true
		pool := []flight.Observation{
			passenger("PAX1", "LHR", "London", "United Kingdom", 10),
			cargo("GTI1", 15),
			passenger("PAX2", "CDG", "Paris", "France", 20),
		}
		got := Select(pool, userLat, userLng, 3, cargoCfg)
		if len(got) != 3 {
			t.Fatalf("Expected 3 aircraft, got %d", len(got))
		}
		if got[1].Callsign != "GTI1" {
			t.Errorf("Expected cargo aircraft at position 2, got %s", got[1].Callsign)
		}
	})
}

// TestSelectDeterminism verifies stable output for identical input.
func TestSelectDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	pool := []flight.Observation{
		passenger("A1", "LHR", "London", "United Kingdom", 10),
		privateJet("P1", 12),
		passenger("A2", "LGW", "London", "United Kingdom", 20),
		passenger("A3", "CDG", "Paris", "France", 30),
		passenger("A4", "JFK", "New York", "United States", 40),
	}

	first := Select(pool, userLat, userLng, 3, cfg)
	for i := 0; i < 10; i++ {
		again := Select(pool, userLat, userLng, 3, cfg)
		if len(again) != len(first) {
			t.Fatalf("Selection size changed between runs: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j].Callsign != first[j].Callsign {
				t.Fatalf("Selection order changed between runs: %v vs %v", again, first)
			}
		}
	}
}
