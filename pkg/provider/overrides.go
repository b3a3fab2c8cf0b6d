package provider

import (
	"strconv"
	"strings"
)

// brand is the marketing identity a flight is narrated under.
type brand struct {
	ICAO string
	IATA string
}

// operatorOverrides rebrands regional carriers under the mainline partner
// they fly for. Vendors report the operating certificate holder, but
// passengers know these flights by the partner name.
var operatorOverrides = map[string]brand{
	"EDV": {ICAO: "DAL", IATA: "DL"}, // Endeavor Air -> Delta
	"PDT": {ICAO: "EGF", IATA: "MQ"}, // Piedmont -> American Eagle
	"JIA": {ICAO: "EGF", IATA: "MQ"}, // PSA Airlines -> American Eagle
	"ENY": {ICAO: "EGF", IATA: "MQ"}, // Envoy Air -> American Eagle
	"GJS": {ICAO: "UAL", IATA: "UA"}, // GoJet -> United
	"QXE": {ICAO: "ASA", IATA: "AS"}, // Horizon Air -> Alaska
}

// flightNumberOverrides pins specific flights to a brand regardless of the
// reported operator. Checked before any other table.
var flightNumberOverrides = map[string]brand{
	"OO3788": {ICAO: "ASA", IATA: "AS"},
	"OO5280": {ICAO: "UAL", IATA: "UA"},
	"YX4439": {ICAO: "AAL", IATA: "AA"},
}

// numberRange maps a block of an operator's flight numbers to the partner
// those blocks are flown for. Operators like SkyWest and Republic fly for
// several mainlines at once, distinguishable only by flight-number block.
type numberRange struct {
	lo, hi int
	partner brand
}

var partnerRanges = map[string][]numberRange{
	"SKW": {
		{lo: 2900, hi: 3329, partner: brand{ICAO: "AAL", IATA: "AA"}},
		{lo: 3330, hi: 3499, partner: brand{ICAO: "ASA", IATA: "AS"}},
		{lo: 3700, hi: 4230, partner: brand{ICAO: "DAL", IATA: "DL"}},
		{lo: 4600, hi: 5999, partner: brand{ICAO: "UAL", IATA: "UA"}},
	},
	"RPA": {
		{lo: 3200, hi: 3699, partner: brand{ICAO: "AAL", IATA: "AA"}},
		{lo: 4700, hi: 4999, partner: brand{ICAO: "UAL", IATA: "UA"}},
		{lo: 5500, hi: 5899, partner: brand{ICAO: "DAL", IATA: "DL"}},
	},
}

// ignoredOperators lists carriers never surfaced to users.
var ignoredOperators = map[string]bool{
	"VJA": true,
}

// resolveOperator normalizes a vendor-reported operator to the brand the
// flight should be narrated under. Precedence: explicit per-flight override,
// then the static regional table, then flight-number range matching.
func resolveOperator(airlineICAO, airlineIATA, flightNumber string) (string, string) {
	icao := strings.ToUpper(strings.TrimSpace(airlineICAO))
	iata := strings.ToUpper(strings.TrimSpace(airlineIATA))

	if b, ok := flightNumberOverrides[strings.ToUpper(strings.TrimSpace(flightNumber))]; ok {
		return b.ICAO, b.IATA
	}

	if b, ok := operatorOverrides[icao]; ok {
		return b.ICAO, b.IATA
	}

	if ranges, ok := partnerRanges[icao]; ok {
		if n, ok := numericSuffix(flightNumber); ok {
			for _, r := range ranges {
				if n >= r.lo && n <= r.hi {
					return r.partner.ICAO, r.partner.IATA
				}
			}
		}
	}

	return icao, iata
}

// numericSuffix extracts the trailing digits of a flight number ("UA4511"
// yields 4511, "4511" yields 4511).
func numericSuffix(flightNumber string) (int, bool) {
	s := strings.TrimSpace(flightNumber)
	start := len(s)
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == len(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isIgnoredOperator(icao string) bool {
	return ignoredOperators[strings.ToUpper(strings.TrimSpace(icao))]
}
