package scanning

import (
	"encoding/json"
	"strings"
)

// RecordType tags the variant carried by a ParsedRecord
type RecordType string

const (
	RecordFlight        RecordType = "flight"
	RecordAccommodation RecordType = "accommodation"
	RecordShip          RecordType = "ship"
	RecordTour          RecordType = "tour"
	RecordUnknown       RecordType = "unknown"
)

// Coordinates is a latitude/longitude pair as reported by the parser
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FlightDetails holds the flight-specific fields of a record
type FlightDetails struct {
	Airline              *string      `json:"airline,omitempty"`
	FlightNumber         *string      `json:"flightNumber,omitempty"`
	DepartureAirport     *string      `json:"departureAirport,omitempty"`
	ArrivalAirport       *string      `json:"arrivalAirport,omitempty"`
	DepartureDate        *string      `json:"departureDate,omitempty"`
	ArrivalDate          *string      `json:"arrivalDate,omitempty"`
	DepartureTime        *string      `json:"departureTime,omitempty"`
	ArrivalTime          *string      `json:"arrivalTime,omitempty"`
	ReturnAirline        *string      `json:"returnAirline,omitempty"`
	ReturnFlightNumber   *string      `json:"returnFlightNumber,omitempty"`
	ReturnDepartureTime  *string      `json:"returnDepartureTime,omitempty"`
	ReturnArrivalTime    *string      `json:"returnArrivalTime,omitempty"`
	DepartureCoordinates *Coordinates `json:"departureCoordinates,omitempty"`
	ArrivalCoordinates   *Coordinates `json:"arrivalCoordinates,omitempty"`
}

// ShipDetails holds the ferry-specific fields of a record
type ShipDetails struct {
	ShipName             *string      `json:"shipName,omitempty"`
	DeparturePort        *string      `json:"departurePort,omitempty"`
	ArrivalPort          *string      `json:"arrivalPort,omitempty"`
	DepartureDate        *string      `json:"departureDate,omitempty"`
	ArrivalDate          *string      `json:"arrivalDate,omitempty"`
	DepartureTime        *string      `json:"departureTime,omitempty"`
	ArrivalTime          *string      `json:"arrivalTime,omitempty"`
	DepartureCoordinates *Coordinates `json:"departureCoordinates,omitempty"`
	ArrivalCoordinates   *Coordinates `json:"arrivalCoordinates,omitempty"`
}

// AccommodationDetails holds the lodging-specific fields of a record
type AccommodationDetails struct {
	HotelName    *string      `json:"hotelName,omitempty"`
	Address      *string      `json:"address,omitempty"`
	CheckInDate  *string      `json:"checkInDate,omitempty"`
	CheckOutDate *string      `json:"checkOutDate,omitempty"`
	CheckInTime  *string      `json:"checkInTime,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

// TourDetails holds the tour-voucher fields of a record
type TourDetails struct {
	TourName  *string `json:"tourName,omitempty"`
	Location  *string `json:"location,omitempty"`
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
}

// ParsedRecord is the loosely-structured output of a parser for one document.
// Every field is optional; absence is not an error.
type ParsedRecord struct {
	Type      RecordType `json:"type"`
	Summary   *string    `json:"summary,omitempty"`
	Title     *string    `json:"title,omitempty"`
	StartDate *string    `json:"startDate,omitempty"`
	EndDate   *string    `json:"endDate,omitempty"`
	Departure *string    `json:"departure,omitempty"`
	Arrival   *string    `json:"arrival,omitempty"`

	// Flat accommodation fields, as emitted by the legacy parser
	HotelName    *string      `json:"hotelName,omitempty"`
	Name         *string      `json:"name,omitempty"`
	Address      *string      `json:"address,omitempty"`
	CheckInDate  *string      `json:"checkInDate,omitempty"`
	CheckOutDate *string      `json:"checkOutDate,omitempty"`
	CheckInTime  *string      `json:"checkInTime,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`

	Flight        *FlightDetails        `json:"flight,omitempty"`
	Ship          *ShipDetails          `json:"ship,omitempty"`
	Accommodation *AccommodationDetails `json:"accommodation,omitempty"`
	Tour          *TourDetails          `json:"tour,omitempty"`

	// Malformed is set when the type tag was missing or unrecognized
	Malformed bool `json:"malformed,omitempty"`
}

// UnmarshalJSON validates the type tag at the boundary. A missing or
// unrecognized tag degrades the record to unknown.
func (r *ParsedRecord) UnmarshalJSON(data []byte) error {
	type plain ParsedRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ParsedRecord(p)

	switch tag := RecordType(strings.ToLower(strings.TrimSpace(string(r.Type)))); tag {
	case RecordFlight, RecordAccommodation, RecordShip, RecordTour:
		r.Type = tag
	case "hotel":
		r.Type = RecordAccommodation
	case RecordUnknown:
		r.Type = RecordUnknown
	default:
		r.Type = RecordUnknown
		r.Malformed = true
	}
	return nil
}

// unknownMarkers are placeholder values extractors emit instead of omitting a field
var unknownMarkers = map[string]bool{
	"미확인":     true,
	"도착지 미확인": true,
	"숙소 미확인":  true,
	"unknown": true,
	"n/a":     true,
	"null":    true,
}

// Value returns the trimmed string behind p, or "" when p is nil or holds a placeholder
func Value(p *string) string {
	if p == nil {
		return ""
	}
	s := strings.TrimSpace(*p)
	if unknownMarkers[strings.ToLower(s)] {
		return ""
	}
	return s
}

// FirstValue returns the first non-empty Value among ps
func FirstValue(ps ...*string) string {
	for _, p := range ps {
		if v := Value(p); v != "" {
			return v
		}
	}
	return ""
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
