package trip

import (
	"time"

	"github.com/zombor/trip-planner/internal/itinerary"
)

// Trip is one planned journey with the documents analyzed for it
type Trip struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Itinerary itinerary.Itinerary      `json:"itinerary"`
	Files     []itinerary.AnalyzedFile `json:"files"`
	Documents []Document               `json:"documents"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Document is an uploaded original kept in storage
type Document struct {
	Name        string `json:"name"`         // name as uploaded, the dedup key
	Path        string `json:"path"`         // storage path
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// document returns the stored document with the given upload name
func (t *Trip) document(name string) (Document, bool) {
	for _, d := range t.Documents {
		if d.Name == name {
			return d, true
		}
	}
	return Document{}, false
}
