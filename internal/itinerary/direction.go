package itinerary

// Direction is the side of the round trip a leg belongs to
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// Rule identifies which classification rule decided a direction
type Rule int

const (
	RuleArrivesHome Rule = iota + 1
	RuleDepartsHome
	RuleContinuesFromEntry
	RuleReturnsToDeparture
	RuleDefault
)

// ClassifyDirection decides whether leg is outbound or inbound relative to
// the home set and the departure and entry points accumulated so far. It is
// a pure function of its inputs.
func ClassifyDirection(leg FlightLeg, home []string, it Itinerary) Direction {
	d, _ := classify(leg, home, it)
	return d
}

func classify(leg FlightLeg, home []string, it Itinerary) (Direction, Rule) {
	departure := leg.DepartureContext.Airport
	arrival := leg.ArrivalContext.Airport

	switch {
	case matchesAny(arrival, home):
		return Inbound, RuleArrivesHome
	case matchesAny(departure, home):
		return Outbound, RuleDepartsHome
	case SameAirport(departure, it.EntryPoint):
		if SameAirport(arrival, it.DeparturePoint) {
			return Inbound, RuleContinuesFromEntry
		}
		return Outbound, RuleContinuesFromEntry
	case SameAirport(arrival, it.DeparturePoint):
		return Inbound, RuleReturnsToDeparture
	default:
		return Outbound, RuleDefault
	}
}
