package itinerary

import "github.com/zombor/trip-planner/internal/scanning"

// LegContext is one end of a leg
type LegContext struct {
	Airport string `json:"airport"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// FlightLeg is a single flight or ferry segment
type FlightLeg struct {
	ID               string     `json:"id"`
	Airline          string     `json:"airline"`
	FlightNumber     string     `json:"flightNumber"`
	DepartureContext LegContext `json:"departureContext"`
	ArrivalContext   LegContext `json:"arrivalContext"`
	LinkedFileID     string     `json:"linkedFileId"`
}

// Accommodation is a place to stay, identified by its name
type Accommodation struct {
	Name        string                `json:"name"`
	Address     string                `json:"address,omitempty"`
	StartDate   string                `json:"startDate"`
	EndDate     string                `json:"endDate"`
	CheckInTime string                `json:"checkInTime,omitempty"`
	Coordinates *scanning.Coordinates `json:"coordinates,omitempty"`
}

// Itinerary is the part of a trip the engine reconciles
type Itinerary struct {
	DeparturePoint      string `json:"departurePoint"`
	EntryPoint          string `json:"entryPoint"`
	Destination         string `json:"destination,omitempty"`
	TravelMode          string `json:"travelMode,omitempty"`
	StartDate           string `json:"startDate"`
	EndDate             string `json:"endDate"`
	Airline             string `json:"airline"`
	FlightNumber        string `json:"flightNumber"`
	DepartureTime       string `json:"departureTime"`
	ArrivalTime         string `json:"arrivalTime"`
	ReturnAirline       string `json:"returnAirline"`
	ReturnFlightNumber  string `json:"returnFlightNumber"`
	ReturnDepartureTime string `json:"returnDepartureTime"`
	ReturnArrivalTime   string `json:"returnArrivalTime"`
	ShipName            string `json:"shipName,omitempty"`
	TourName            string `json:"tourName,omitempty"`

	OutboundFlights []FlightLeg     `json:"outboundFlights"`
	InboundFlights  []FlightLeg     `json:"inboundFlights"`
	Accommodations  []Accommodation `json:"accommodations"`
}

// Clone returns a copy whose slices can be appended to without touching it
func (it Itinerary) Clone() Itinerary {
	c := it
	c.OutboundFlights = append([]FlightLeg(nil), it.OutboundFlights...)
	c.InboundFlights = append([]FlightLeg(nil), it.InboundFlights...)
	c.Accommodations = append([]Accommodation(nil), it.Accommodations...)
	return c
}

// FileStatus is the analysis state of one uploaded file
type FileStatus string

const (
	StatusLoading FileStatus = "loading"
	StatusDone    FileStatus = "done"
	StatusError   FileStatus = "error"
)

// AnalyzedFile tracks one uploaded file through a batch
type AnalyzedFile struct {
	Name       string                 `json:"name"`
	Text       string                 `json:"text,omitempty"`
	Status     FileStatus             `json:"status"`
	ParsedData *scanning.ParsedRecord `json:"parsedData,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// File is an uploaded document awaiting analysis
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
