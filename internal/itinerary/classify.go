package itinerary

import (
	"fmt"

	"github.com/zombor/trip-planner/internal/scanning"
)

const (
	travelModePlane = "plane"
	travelModeShip  = "ship"
)

// ApplyRecord dispatches a parsed record to the handler for its type and
// returns the updated itinerary with any warnings raised along the way.
func ApplyRecord(it Itinerary, rec *scanning.ParsedRecord, fileID string, home []string) (Itinerary, []string) {
	if rec == nil {
		return it, nil
	}

	var warnings []string
	switch rec.Type {
	case scanning.RecordFlight:
		var dir Direction
		leg := BuildFlightLeg(rec, fileID)
		it, dir, warnings = applyLeg(it, leg, home)
		if dir == Outbound {
			setIfKnown(&it.Destination, ResolveAirportName(leg.ArrivalContext.Airport))
		}
		fillEmpty(&it.TravelMode, travelModePlane)
		return it, warnings
	case scanning.RecordShip:
		leg := BuildShipLeg(rec, fileID)
		it, _, warnings = applyLeg(it, leg, home)
		setIfKnown(&it.ShipName, carrier(leg))
		fillEmpty(&it.TravelMode, travelModeShip)
		return it, warnings
	case scanning.RecordAccommodation:
		return applyAccommodation(it, rec), nil
	case scanning.RecordTour:
		return applyTour(it, rec), nil
	default:
		return applyDates(it, rec), nil
	}
}

// applyLeg classifies and merges one leg, then recomputes the summary
func applyLeg(it Itinerary, leg FlightLeg, home []string) (Itinerary, Direction, []string) {
	var warnings []string
	hadLegs := len(it.OutboundFlights)+len(it.InboundFlights) > 0

	dir, rule := classify(leg, home, it)
	if rule == RuleDefault && hadLegs {
		warnings = append(warnings, fmt.Sprintf(
			"leg %s %s→%s matched neither home airports nor the current route; assumed outbound",
			legLabel(leg), leg.DepartureContext.Airport, leg.ArrivalContext.Airport))
	}

	it, _ = MergeLeg(it, leg, dir)
	return Summarize(it), dir, warnings
}

func legLabel(leg FlightLeg) string {
	if leg.FlightNumber != "" {
		return leg.FlightNumber
	}
	return leg.Airline
}

func applyAccommodation(it Itinerary, rec *scanning.ParsedRecord) Itinerary {
	a := rec.Accommodation
	if a == nil {
		a = &scanning.AccommodationDetails{}
	}

	acc := Accommodation{
		Name:        scanning.FirstValue(a.HotelName, rec.HotelName, rec.Name, rec.Title),
		Address:     scanning.FirstValue(a.Address, rec.Address),
		StartDate:   NormalizeDate(scanning.FirstValue(a.CheckInDate, rec.CheckInDate, rec.StartDate)),
		EndDate:     NormalizeDate(scanning.FirstValue(a.CheckOutDate, rec.CheckOutDate, rec.EndDate)),
		CheckInTime: NormalizeTime(scanning.FirstValue(a.CheckInTime, rec.CheckInTime), ""),
		Coordinates: a.Coordinates,
	}
	if acc.Coordinates == nil {
		acc.Coordinates = rec.Coordinates
	}
	if acc.Name == "" {
		return it
	}

	for i, existing := range it.Accommodations {
		if existing.Name != acc.Name {
			continue
		}
		merged := existing
		fillEmpty(&merged.Address, acc.Address)
		fillEmpty(&merged.StartDate, acc.StartDate)
		fillEmpty(&merged.EndDate, acc.EndDate)
		fillEmpty(&merged.CheckInTime, acc.CheckInTime)
		if merged.Coordinates == nil {
			merged.Coordinates = acc.Coordinates
		}
		list := append([]Accommodation(nil), it.Accommodations...)
		list[i] = merged
		it.Accommodations = list
		return it
	}

	it.Accommodations = append(it.Accommodations[:len(it.Accommodations):len(it.Accommodations)], acc)
	return it
}

func applyTour(it Itinerary, rec *scanning.ParsedRecord) Itinerary {
	var t scanning.TourDetails
	if rec.Tour != nil {
		t = *rec.Tour
	}
	setIfKnown(&it.TourName, scanning.FirstValue(t.TourName, rec.Title))
	if it.StartDate == "" && it.EndDate == "" {
		it.StartDate = NormalizeDate(scanning.FirstValue(t.Date, rec.StartDate))
		it.EndDate = NormalizeDate(scanning.FirstValue(rec.EndDate, t.Date))
	}
	return it
}

// applyDates takes only the date fields of unknown or malformed records
func applyDates(it Itinerary, rec *scanning.ParsedRecord) Itinerary {
	setIfKnown(&it.StartDate, NormalizeDate(scanning.Value(rec.StartDate)))
	setIfKnown(&it.EndDate, NormalizeDate(scanning.Value(rec.EndDate)))
	return it
}

func fillEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
