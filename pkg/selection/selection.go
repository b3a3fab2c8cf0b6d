// Package selection picks a small, varied subset of nearby aircraft from a
// distance-sorted candidate pool. Pure proximity makes for repetitive
// narration (three shuttles to the same hub); the selector trades a little
// closeness for destination variety and an operator-type mix.
//
// Selection is deterministic: identical input pools produce identical output.
package selection

import (
	"sort"

	"github.com/jetscan-audio/jetscan/pkg/flight"
	"github.com/jetscan-audio/jetscan/pkg/geo"
	"github.com/jetscan-audio/jetscan/pkg/refdata"
)

// Config controls selection behavior.
type Config struct {
	// MaxResults is the interactive selection size (default 3)
	MaxResults int

	// PreGenMax is the larger limit used for background pre-generation
	// (default 5)
	PreGenMax int

	// NearDestinationKm separates "going somewhere far" candidates from
	// local-hop traffic (default 160)
	NearDestinationKm float64

	// IncludeCargo admits cargo operators into the special-operator slot.
	// Private/charter operators are always admitted. Cargo is currently
	// disabled by default while narrations for freight routes are reworked.
	IncludeCargo bool
}

// DefaultConfig returns the production selection parameters.
func DefaultConfig() Config {
	return Config{
		MaxResults:        3,
		PreGenMax:         5,
		NearDestinationKm: 160.0,
		IncludeCargo:      false,
	}
}

// candidate pairs an observation with its destination distance from the user.
type candidate struct {
	obs flight.Observation

	// destDistKm is the user-to-destination-airport distance; valid only
	// when hasDestDist is set (destination resolved in the airport database)
	destDistKm  float64
	hasDestDist bool
}

// Select picks up to limit aircraft from a candidate pool already sorted by
// ascending distance from the user. See the package comment for the goals;
// the mechanics are:
//
//  1. Partition into special operators (cargo/private per Config) and
//     passengers, the latter split at NearDestinationKm of user-to-destination
//     distance with far-destination candidates ranked first.
//  2. Take passengers greedily by not-yet-seen destination country, then by
//     not-yet-seen destination city, then in original order.
//  3. Re-sort the picks by ascending distance and slot in one special
//     operator: at position 2 when two or more passengers were chosen,
//     appended otherwise.
//
// Empty pools return empty selections; short pools return everything.
func Select(pool []flight.Observation, userLat, userLng float64, limit int, cfg Config) []flight.Observation {
	if limit <= 0 || len(pool) == 0 {
		return []flight.Observation{}
	}

	var special []candidate // cargo/private, original distance order
	var far, near []candidate

	for _, obs := range pool {
		// With cargo inclusion off, freight traffic is excluded outright
		// rather than demoted to the passenger pool.
		if obs.CargoOperator && !obs.PrivateOperator && !cfg.IncludeCargo {
			continue
		}

		c := enrich(obs, userLat, userLng)

		if isSpecialOperator(obs, cfg) {
			special = append(special, c)
			continue
		}

		// Unresolvable destinations rank with far traffic: they are at
		// least not known to be local hops.
		if c.hasDestDist && c.destDistKm <= cfg.NearDestinationKm {
			near = append(near, c)
		} else {
			far = append(far, c)
		}
	}

	passengers := append(append([]candidate{}, far...), near...)
	picked := pickDiverse(passengers, limit)

	// Closest physically detected aircraft narrates first.
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].obs.DistanceKm < picked[j].obs.DistanceKm
	})

	result := make([]flight.Observation, 0, limit)
	for _, c := range picked {
		result = append(result, c.obs)
	}

	result = insertSpecial(result, special, limit)

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// enrich computes the user-to-destination distance for bucketing.
func enrich(obs flight.Observation, userLat, userLng float64) candidate {
	c := candidate{obs: obs}
	if obs.DestinationIATA == "" {
		return c
	}
	ap, ok := refdata.AirportByIATA(obs.DestinationIATA)
	if !ok {
		return c
	}
	c.destDistKm = geo.Distance(userLat, userLng, ap.Lat, ap.Lon)
	c.hasDestDist = true
	return c
}

func isSpecialOperator(obs flight.Observation, cfg Config) bool {
	if obs.PrivateOperator {
		return true
	}
	return cfg.IncludeCargo && obs.CargoOperator
}

// pickDiverse runs the three diversity passes over the passenger pool.
func pickDiverse(pool []candidate, limit int) []candidate {
	picked := make([]candidate, 0, limit)
	taken := make([]bool, len(pool))

	// Pass 1: one aircraft per destination country.
	seenCountry := make(map[string]bool)
	for i, c := range pool {
		if len(picked) >= limit {
			break
		}
		country := c.obs.DestinationCountry
		if country == "" || seenCountry[country] {
			continue
		}
		seenCountry[country] = true
		taken[i] = true
		picked = append(picked, c)
	}

	// Pass 2: one aircraft per destination city, country may now repeat.
	seenCity := make(map[string]bool)
	for _, c := range picked {
		if c.obs.DestinationCity != "" {
			seenCity[c.obs.DestinationCity] = true
		}
	}
	for i, c := range pool {
		if len(picked) >= limit {
			break
		}
		if taken[i] {
			continue
		}
		city := c.obs.DestinationCity
		if city == "" || seenCity[city] {
			continue
		}
		seenCity[city] = true
		taken[i] = true
		picked = append(picked, c)
	}

	// Pass 3: fill remaining quota in original order.
	for i, c := range pool {
		if len(picked) >= limit {
			break
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		picked = append(picked, c)
	}

	return picked
}

// insertSpecial slots cargo/private aircraft into the passenger selection.
// With two or more passengers the closest special aircraft takes position 2,
// keeping the closest passenger as the opener; thinner selections append
// specials instead.
func insertSpecial(passengers []flight.Observation, special []candidate, limit int) []flight.Observation {
	if len(special) == 0 {
		return passengers
	}

	closest := special[0].obs
	for _, s := range special[1:] {
		if s.obs.DistanceKm < closest.DistanceKm {
			closest = s.obs
		}
	}

	switch {
	case len(passengers) >= 2:
		out := make([]flight.Observation, 0, limit)
		out = append(out, passengers[0], closest)
		out = append(out, passengers[1:]...)
		if len(out) > limit {
			out = out[:limit]
		}
		return out

	case len(passengers) == 1:
		out := append([]flight.Observation{}, passengers...)
		for _, s := range special {
			if len(out) >= limit || len(out) >= 3 {
				break
			}
			out = append(out, s.obs)
		}
		return out

	default:
		out := make([]flight.Observation, 0, limit)
		for _, s := range special {
			if len(out) >= limit || len(out) >= 3 {
				break
			}
			out = append(out, s.obs)
		}
		return out
	}
}
