package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseRecordJSON parses the JSON object embedded in a model response
func parseRecordJSON(text string) (*ParsedRecord, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found in response", ErrParseUnavailable)
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("%w: invalid JSON object in response", ErrParseUnavailable)
	}
	text = text[startIdx : endIdx+1]

	var record ParsedRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling json: %v", ErrParseUnavailable, err)
	}
	return &record, nil
}

// hasContent reports whether a record carries enough to be worth keeping:
// a summary, an airline or a hotel name.
func hasContent(r *ParsedRecord) bool {
	if Value(r.Summary) != "" {
		return true
	}
	if r.Flight != nil && Value(r.Flight.Airline) != "" {
		return true
	}
	if r.Accommodation != nil && Value(r.Accommodation.HotelName) != "" {
		return true
	}
	return false
}
