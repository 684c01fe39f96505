package itinerary

// MergeLeg appends leg to the list for dir. A leg whose non-empty flight
// number is already in that list is dropped; the second result reports
// whether the leg was added.
func MergeLeg(it Itinerary, leg FlightLeg, dir Direction) (Itinerary, bool) {
	list := it.OutboundFlights
	if dir == Inbound {
		list = it.InboundFlights
	}

	if leg.FlightNumber != "" {
		for _, existing := range list {
			if existing.FlightNumber == leg.FlightNumber {
				return it, false
			}
		}
	}

	list = append(list[:len(list):len(list)], leg)
	if dir == Inbound {
		it.InboundFlights = list
	} else {
		it.OutboundFlights = list
	}
	return it, true
}

// Summarize recomputes the summary fields from the first outbound leg and
// the last inbound leg. Empty values never replace known ones.
func Summarize(it Itinerary) Itinerary {
	if len(it.OutboundFlights) > 0 {
		it = applyOutbound(it, it.OutboundFlights[0])
	}
	if n := len(it.InboundFlights); n > 0 {
		it = applyInbound(it, it.InboundFlights[n-1])
	}
	return it
}

func applyOutbound(it Itinerary, leg FlightLeg) Itinerary {
	setIfKnown(&it.Airline, carrier(leg))
	setIfKnown(&it.FlightNumber, leg.FlightNumber)
	setIfKnown(&it.DeparturePoint, ResolveAirportName(leg.DepartureContext.Airport))
	setIfKnown(&it.EntryPoint, ResolveAirportName(leg.ArrivalContext.Airport))
	setIfKnown(&it.DepartureTime, leg.DepartureContext.Time)
	setIfKnown(&it.ArrivalTime, leg.ArrivalContext.Time)
	setIfKnown(&it.StartDate, leg.DepartureContext.Date)
	return it
}

func applyInbound(it Itinerary, leg FlightLeg) Itinerary {
	setIfKnown(&it.ReturnAirline, carrier(leg))
	setIfKnown(&it.ReturnFlightNumber, leg.FlightNumber)
	setIfKnown(&it.ReturnDepartureTime, leg.DepartureContext.Time)
	setIfKnown(&it.ReturnArrivalTime, leg.ArrivalContext.Time)
	end := leg.DepartureContext.Date
	if end == "" {
		end = leg.ArrivalContext.Date
	}
	setIfKnown(&it.EndDate, end)
	return it
}

func carrier(leg FlightLeg) string {
	if leg.Airline == UnknownCarrier {
		return ""
	}
	return leg.Airline
}

func setIfKnown(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
