package itinerary

import (
	"fmt"
	"sort"
)

type datedLeg struct {
	leg      FlightLeg
	dir      Direction
	earliest string
}

// ReconcileRoundTrip is the batch-level correction pass. Every merged leg,
// including those confirmed by earlier batches, is ordered by its earliest
// known date; the earliest confirms the outbound summary and, when there are
// two or more, the latest confirms the return summary. A leg whose direction
// is fixed by the home set never confirms the opposite side, and a lone
// dated leg only confirms the side it was classified on. Undated legs are
// ignored. Itineraries holding more than two legs produce a warning since
// the pass assumes a simple round trip.
func ReconcileRoundTrip(it Itinerary, home []string) (Itinerary, []string) {
	var dated []datedLeg
	collect := func(legs []FlightLeg, dir Direction) {
		for _, leg := range legs {
			if earliest := earliestDate(leg); earliest != "" {
				dated = append(dated, datedLeg{leg: leg, dir: dir, earliest: earliest})
			}
		}
	}
	collect(it.OutboundFlights, Outbound)
	collect(it.InboundFlights, Inbound)

	var warnings []string
	if n := len(it.OutboundFlights) + len(it.InboundFlights); n > 2 {
		warnings = append(warnings, fmt.Sprintf(
			"itinerary holds %d legs: direction classification is only reliable for a single round trip", n))
	}

	switch len(dated) {
	case 0:
		return it, warnings
	case 1:
		if dated[0].dir == Inbound {
			return applyInbound(it, dated[0].leg), warnings
		}
		return applyOutbound(it, dated[0].leg), warnings
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].earliest < dated[j].earliest
	})
	first, last := dated[0].leg, dated[len(dated)-1].leg
	if dir, ok := homeDirection(first, home); !ok || dir == Outbound {
		it = applyOutbound(it, first)
	}
	if dir, ok := homeDirection(last, home); !ok || dir == Inbound {
		it = applyInbound(it, last)
	}
	return it, warnings
}

// homeDirection reports the direction the home set alone decides for leg
func homeDirection(leg FlightLeg, home []string) (Direction, bool) {
	switch {
	case matchesAny(leg.ArrivalContext.Airport, home):
		return Inbound, true
	case matchesAny(leg.DepartureContext.Airport, home):
		return Outbound, true
	}
	return "", false
}

func earliestDate(leg FlightLeg) string {
	dep, arr := leg.DepartureContext.Date, leg.ArrivalContext.Date
	switch {
	case dep == "":
		return arr
	case arr == "" || dep < arr:
		return dep
	default:
		return arr
	}
}
