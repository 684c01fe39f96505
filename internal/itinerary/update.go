package itinerary

import "slices"

// ItineraryUpdate is the combined change a batch makes to an itinerary. Nil
// fields are left untouched; lists replace the stored list when set.
type ItineraryUpdate struct {
	DeparturePoint      *string `json:"departurePoint,omitempty"`
	EntryPoint          *string `json:"entryPoint,omitempty"`
	Destination         *string `json:"destination,omitempty"`
	TravelMode          *string `json:"travelMode,omitempty"`
	StartDate           *string `json:"startDate,omitempty"`
	EndDate             *string `json:"endDate,omitempty"`
	Airline             *string `json:"airline,omitempty"`
	FlightNumber        *string `json:"flightNumber,omitempty"`
	DepartureTime       *string `json:"departureTime,omitempty"`
	ArrivalTime         *string `json:"arrivalTime,omitempty"`
	ReturnAirline       *string `json:"returnAirline,omitempty"`
	ReturnFlightNumber  *string `json:"returnFlightNumber,omitempty"`
	ReturnDepartureTime *string `json:"returnDepartureTime,omitempty"`
	ReturnArrivalTime   *string `json:"returnArrivalTime,omitempty"`
	ShipName            *string `json:"shipName,omitempty"`
	TourName            *string `json:"tourName,omitempty"`

	OutboundFlights []FlightLeg     `json:"outboundFlights,omitempty"`
	InboundFlights  []FlightLeg     `json:"inboundFlights,omitempty"`
	Accommodations  []Accommodation `json:"accommodations,omitempty"`
}

type stringField struct {
	get func(*Itinerary) *string
	set func(*ItineraryUpdate) **string
}

var stringFields = []stringField{
	{func(it *Itinerary) *string { return &it.DeparturePoint }, func(u *ItineraryUpdate) **string { return &u.DeparturePoint }},
	{func(it *Itinerary) *string { return &it.EntryPoint }, func(u *ItineraryUpdate) **string { return &u.EntryPoint }},
	{func(it *Itinerary) *string { return &it.Destination }, func(u *ItineraryUpdate) **string { return &u.Destination }},
	{func(it *Itinerary) *string { return &it.TravelMode }, func(u *ItineraryUpdate) **string { return &u.TravelMode }},
	{func(it *Itinerary) *string { return &it.StartDate }, func(u *ItineraryUpdate) **string { return &u.StartDate }},
	{func(it *Itinerary) *string { return &it.EndDate }, func(u *ItineraryUpdate) **string { return &u.EndDate }},
	{func(it *Itinerary) *string { return &it.Airline }, func(u *ItineraryUpdate) **string { return &u.Airline }},
	{func(it *Itinerary) *string { return &it.FlightNumber }, func(u *ItineraryUpdate) **string { return &u.FlightNumber }},
	{func(it *Itinerary) *string { return &it.DepartureTime }, func(u *ItineraryUpdate) **string { return &u.DepartureTime }},
	{func(it *Itinerary) *string { return &it.ArrivalTime }, func(u *ItineraryUpdate) **string { return &u.ArrivalTime }},
	{func(it *Itinerary) *string { return &it.ReturnAirline }, func(u *ItineraryUpdate) **string { return &u.ReturnAirline }},
	{func(it *Itinerary) *string { return &it.ReturnFlightNumber }, func(u *ItineraryUpdate) **string { return &u.ReturnFlightNumber }},
	{func(it *Itinerary) *string { return &it.ReturnDepartureTime }, func(u *ItineraryUpdate) **string { return &u.ReturnDepartureTime }},
	{func(it *Itinerary) *string { return &it.ReturnArrivalTime }, func(u *ItineraryUpdate) **string { return &u.ReturnArrivalTime }},
	{func(it *Itinerary) *string { return &it.ShipName }, func(u *ItineraryUpdate) **string { return &u.ShipName }},
	{func(it *Itinerary) *string { return &it.TourName }, func(u *ItineraryUpdate) **string { return &u.TourName }},
}

// Diff returns the update that turns base into working
func Diff(base, working Itinerary) ItineraryUpdate {
	var u ItineraryUpdate
	for _, f := range stringFields {
		if v := *f.get(&working); v != *f.get(&base) {
			*f.set(&u) = &v
		}
	}
	if !slices.Equal(base.OutboundFlights, working.OutboundFlights) {
		u.OutboundFlights = working.OutboundFlights
	}
	if !slices.Equal(base.InboundFlights, working.InboundFlights) {
		u.InboundFlights = working.InboundFlights
	}
	if !slices.Equal(base.Accommodations, working.Accommodations) {
		u.Accommodations = working.Accommodations
	}
	return u
}

// Apply returns it with the update applied
func (u ItineraryUpdate) Apply(it Itinerary) Itinerary {
	it = it.Clone()
	for _, f := range stringFields {
		if v := *f.set(&u); v != nil {
			*f.get(&it) = *v
		}
	}
	if u.OutboundFlights != nil {
		it.OutboundFlights = u.OutboundFlights
	}
	if u.InboundFlights != nil {
		it.InboundFlights = u.InboundFlights
	}
	if u.Accommodations != nil {
		it.Accommodations = u.Accommodations
	}
	return it
}

// IsEmpty reports whether the update changes nothing
func (u ItineraryUpdate) IsEmpty() bool {
	for _, f := range stringFields {
		if *f.set(&u) != nil {
			return false
		}
	}
	return u.OutboundFlights == nil && u.InboundFlights == nil && u.Accommodations == nil
}
