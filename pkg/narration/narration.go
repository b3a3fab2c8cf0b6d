// Package narration builds the spoken text for detected aircraft. Templates
// are split into an opening (the detection callout, which varies by plane
// position and distance) and a body (the flight details), because the two
// halves are cached and stitched independently.
package narration

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jetscan-audio/jetscan/pkg/flight"
)

const (
	unknownDestination = "an unknown destination"
	unknownCountry     = "an unknown country"
)

// FreeScanIntro is the static preamble played before pooled audio on the
// free tier.
const FreeScanIntro = "Welcome aboard! My scanner has been listening to the skies, and I've saved some of the best flights it heard recently. Let's tune in."

// EmptyPoolMessage plays when the free pool has nothing yet (cold start).
const EmptyPoolMessage = "I'm still warming up my scanner! Check back in a few minutes."

// randIntn is swappable so tests can pin phrasing choices.
var randIntn = rand.Intn

// FlightText describes the closest detected aircraft, or explains why
// nothing was found. This is the single-sentence summary used by the
// legacy scan response and pre-generation.
func FlightText(aircraft []flight.Observation, errMessage string) string {
	if len(aircraft) == 0 {
		return NoAircraftText(errMessage)
	}

	closest := aircraft[0]
	return Opening(closest, 1) + " " + Body(closest)
}

// NoAircraftText explains an empty scan in listener-friendly words.
func NoAircraftText(errMessage string) string {
	if errMessage != "" {
		return "No aircraft detected nearby, because of " + strings.ToLower(errMessage)
	}
	return "No aircraft detected nearby, because no passenger aircraft found within 100km radius"
}

// Opening is the detection callout for the plane at position planeIndex
// (1-based). The first plane gets the full radar reveal; later planes get a
// shorter handoff so a three-plane session does not repeat itself.
func Opening(o flight.Observation, planeIndex int) string {
	miles := milesPhrase(o.DistanceMiles)

	if planeIndex <= 1 {
		return fmt.Sprintf("Jet plane detected in the sky overhead %s from your player.", miles)
	}

	variants := []string{
		fmt.Sprintf("My scanner is picking up another aircraft, %s away.", miles),
		fmt.Sprintf("Wait, there's more! Another jet just appeared on my radar, %s from you.", miles),
		fmt.Sprintf("And here comes another one, %s away.", miles),
	}
	return variants[randIntn(len(variants))]
}

// GenericOpening is the location-free detection callout used for the free
// pool, where the listener is not at the coordinates the audio was scanned
// from.
func GenericOpening(planeIndex int) string {
	if planeIndex <= 1 {
		return "Jet plane detected! My scanner has picked up an aircraft soaring through the clouds."
	}
	return "And my scanner has found another jet up there among the clouds."
}

// Body is the flight-details sentence for one aircraft: identity,
// destination, and whatever enrichment the observation carries.
func Body(o flight.Observation) string {
	identifier := flightIdentifier(o)

	var b strings.Builder

	if o.DestinationCity == "" || o.DestinationCountry == "" {
		fmt.Fprintf(&b, "This is %s, travelling to %s.", identifier, unknownDestination)
	} else {
		fmt.Fprintf(&b, "This is %s, travelling to %s in %s.", identifier, o.DestinationCity, o.DestinationCountry)
	}

	if o.AircraftName != "" && !strings.HasPrefix(o.AircraftName, "Unknown Aircraft") {
		fmt.Fprintf(&b, " It's a %s", o.AircraftName)
		if o.PassengerCapacity > 0 {
			fmt.Fprintf(&b, ", which can carry around %d passengers", o.PassengerCapacity)
		}
		b.WriteString(".")
	}

	if o.AltitudeFt > 0 {
		fmt.Fprintf(&b, " Right now it's flying at about %s feet", groupThousands(o.AltitudeFt))
		if o.GroundSpeedKt > 0 {
			fmt.Fprintf(&b, ", moving at %d knots", o.GroundSpeedKt)
		}
		b.WriteString(".")
	}

	return b.String()
}

// flightIdentifier prefers "airline flight number" over a bare callsign.
func flightIdentifier(o flight.Observation) string {
	number := o.FlightNumber
	if number == "" {
		number = o.Callsign
	}
	if number == "" {
		number = "an unknown flight"
		return number
	}

	if o.PrivateOperator {
		return fmt.Sprintf("a private jet, flight %s", number)
	}
	if o.AirlineName != "" {
		return fmt.Sprintf("%s flight %s", o.AirlineName, number)
	}
	return "flight " + number
}

// milesPhrase renders a distance for speech, avoiding "0 miles" for
// aircraft directly overhead.
func milesPhrase(miles int) string {
	if miles <= 0 {
		return "just a moment"
	}
	if miles == 1 {
		return "1 mile"
	}
	return fmt.Sprintf("%d miles", miles)
}

// groupThousands renders 35000 as "35,000" so TTS reads it naturally.
func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

// santaText replaces the fifth plane's narration during the Christmas Eve
// window.
const santaText = "Incredible! My radar just picked up something truly extraordinary, gliding silently through the clouds! " +
	"It's not a jet, and it's not a bird. It's a wooden sleigh being pulled by a team of eight... no, wait... " +
	"nine flying reindeer!\n\n" +
	"My scanner is showing a very mysterious figure at the reins, wearing a bright red suit and navigating with a " +
	"glowing red light right at the front of the pack. This unusual craft doesn't have a flight number, but it's moving " +
	"at incredible speeds, zig-zagging across the globe and carrying a massive sack overflowing with colorful packages.\n\n" +
	"Fun fact: Reindeer are the only deer species where both the males and females grow antlers, and they are excellent " +
	"swimmers, able to cross wide rivers and even parts of the ocean!\n\n" +
	"This magical team seems to be on a very tight schedule tonight, stopping at every rooftop before whisking away into " +
	"the starry night."

// SentenceOverride returns special seasonal copy for the plane at
// planeIndex, when one applies at the given time. Active from 07:00 UTC on
// December 24 until 07:00 UTC on December 25, for the fifth plane only.
func SentenceOverride(planeIndex int, now time.Time) (string, bool) {
	utc := now.UTC()
	if planeIndex != 5 || utc.Month() != time.December {
		return "", false
	}
	if (utc.Day() == 24 && utc.Hour() >= 7) || (utc.Day() == 25 && utc.Hour() < 7) {
		return santaText, true
	}
	return "", false
}
