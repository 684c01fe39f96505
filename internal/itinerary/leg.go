package itinerary

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/zombor/trip-planner/internal/scanning"
)

// UnknownCarrier stands in for a missing airline or ship name
const UnknownCarrier = "Unknown carrier"

var (
	textTimePattern = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	markerAfter     = regexp.MustCompile(`(?i)^[ \t]{0,2}(AM|PM|A\.M\.|P\.M\.|오전|오후)(?:[^A-Za-z]|$)`)
	markerBefore    = regexp.MustCompile(`(?i)(?:^|[^A-Za-z])(AM|PM|A\.M\.|P\.M\.|오전|오후)[ \t]{0,2}$`)
)

// BuildFlightLeg builds a leg from a flight record. Nested flight fields win
// over the record's top-level departure, arrival and startDate. When the
// record carries no times at all, the first two clock values found in the
// summary are used as departure and arrival.
func BuildFlightLeg(rec *scanning.ParsedRecord, fileID string) FlightLeg {
	f := rec.Flight
	if f == nil {
		f = &scanning.FlightDetails{}
	}

	leg := FlightLeg{
		ID:           uuid.NewString(),
		Airline:      scanning.Value(f.Airline),
		FlightNumber: normalizeFlightNumber(scanning.Value(f.FlightNumber)),
		DepartureContext: LegContext{
			Airport: scanning.FirstValue(f.DepartureAirport, rec.Departure),
			Date:    NormalizeDate(scanning.FirstValue(f.DepartureDate, rec.StartDate)),
		},
		ArrivalContext: LegContext{
			Airport: scanning.FirstValue(f.ArrivalAirport, rec.Arrival),
			Date:    NormalizeDate(scanning.Value(f.ArrivalDate)),
		},
		LinkedFileID: fileID,
	}
	if leg.Airline == "" {
		leg.Airline = UnknownCarrier
	}

	setTimes(&leg, scanning.Value(f.DepartureTime), scanning.Value(f.ArrivalTime), scanning.Value(rec.Summary))
	return leg
}

// BuildShipLeg builds a ferry leg, treating ports as airports and the ship
// as the carrier
func BuildShipLeg(rec *scanning.ParsedRecord, fileID string) FlightLeg {
	s := rec.Ship
	if s == nil {
		s = &scanning.ShipDetails{}
	}

	leg := FlightLeg{
		ID:      uuid.NewString(),
		Airline: scanning.FirstValue(s.ShipName, rec.Title),
		DepartureContext: LegContext{
			Airport: scanning.FirstValue(s.DeparturePort, rec.Departure),
			Date:    NormalizeDate(scanning.FirstValue(s.DepartureDate, rec.StartDate)),
		},
		ArrivalContext: LegContext{
			Airport: scanning.FirstValue(s.ArrivalPort, rec.Arrival),
			Date:    NormalizeDate(scanning.Value(s.ArrivalDate)),
		},
		LinkedFileID: fileID,
	}
	if leg.Airline == "" {
		leg.Airline = UnknownCarrier
	}

	setTimes(&leg, scanning.Value(s.DepartureTime), scanning.Value(s.ArrivalTime), scanning.Value(rec.Summary))
	return leg
}

func setTimes(leg *FlightLeg, departure, arrival, summary string) {
	if departure == "" && arrival == "" {
		found := timesInText(summary)
		if len(found) > 0 {
			departure = found[0]
		}
		if len(found) > 1 {
			arrival = found[1]
		}
	}
	leg.DepartureContext.Time = NormalizeTime(departure, "")
	leg.ArrivalContext.Time = NormalizeTime(arrival, "")
}

// timesInText returns clock values in order of appearance, skipping pieces
// of dotted or dashed dates such as 2025.04.10
func timesInText(text string) []string {
	var times []string
	for _, loc := range textTimePattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && strings.ContainsRune(".-/", rune(text[loc[0]-1])) {
			continue
		}
		if loc[1] < len(text) && strings.ContainsRune(".-/", rune(text[loc[1]])) {
			continue
		}
		if t := NormalizeTime(withMarker(text, loc[0], loc[1]), ""); t != "" {
			times = append(times, t)
		}
	}
	return times
}

// withMarker returns the clock value at text[start:end] together with an
// AM/PM marker written right after it or, failing that, right before it
func withMarker(text string, start, end int) string {
	clock := text[start:end]
	if m := markerAfter.FindStringSubmatch(text[end:min(len(text), end+12)]); m != nil {
		return clock + " " + m[1]
	}
	if m := markerBefore.FindStringSubmatch(text[max(0, start-12):start]); m != nil {
		return m[1] + " " + clock
	}
	return clock
}

func normalizeFlightNumber(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
