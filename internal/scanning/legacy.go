package scanning

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// knownAirports are the IATA codes the heuristic parser looks for in flight documents
var knownAirports = []string{"ICN", "GMP", "PUS", "CJU", "TAE", "CJJ", "NRT", "HND", "KIX", "FUK", "CTS", "OKA"}

var (
	airportCodePattern  = regexp.MustCompile(`\b(` + strings.Join(knownAirports, "|") + `)\b`)
	flightNumberPattern = regexp.MustCompile(`\b([A-Z]{2}|[A-Z][0-9]|[0-9][A-Z])\s?([0-9]{3,4})\b`)
	koreanDatePattern   = regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	numericDatePattern  = regexp.MustCompile(`(20\d{2})[-./년\s]+(\d{1,2})[-./월\s]+(\d{1,2})`)
	englishDatePattern  = regexp.MustCompile(`(?i)\b(?:(\d{1,2})\s+)?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?(?:\s+(\d{1,2})\b)?(?:,?\s*(20\d{2}))?`)
	yearPattern         = regexp.MustCompile(`\b20\d{2}\b`)
	contextTimePattern  = regexp.MustCompile(`(?i)(?:(AM|PM)\s*)?(\d{1,2}):(\d{2})(?:\s*(AM|PM))?`)
	hotelNoisePattern   = regexp.MustCompile(`(?i)booking id|agoda|voucher|confirm|중요편지함|체크인|체크아웃`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var hotelKeywords = []string{"Hotel", "Resort", "Stay", "Inn", "Voucher", "호텔", "리조트", "스테이", "확약번호", "체크인"}

// Legacy is the deterministic keyword parser used when the AI parser fails on text input
type Legacy struct {
	now func() time.Time
}

// NewLegacy creates a new Legacy parser
func NewLegacy() *Legacy {
	return &Legacy{now: time.Now}
}

// Parse classifies text by keywords and pulls out what it can
func (l *Legacy) Parse(text string) *ParsedRecord {
	compact := strings.ToLower(whitespacePattern.ReplaceAllString(text, ""))
	summary := summarize(text)
	dates := l.extractDates(text)

	switch {
	case containsAny(compact, "boardingpass", "flight", "airline", "탑승권", "항공") ||
		(strings.Contains(compact, "icn") && strings.Contains(compact, "oka")):
		return l.parseFlight(text, summary, dates)
	case containsAny(compact, "hotel", "resort", "checkin", "agoda", "booking.com", "호텔", "숙소"):
		return l.parseAccommodation(text, summary, dates)
	}

	record := &ParsedRecord{Type: RecordUnknown, Summary: optional(summary)}
	if len(dates) > 0 {
		record.StartDate = Ptr(dates[0])
		record.EndDate = Ptr(dates[len(dates)-1])
	}
	return record
}

func (l *Legacy) parseFlight(text, summary string, dates []string) *ParsedRecord {
	var codes []string
	for _, code := range airportCodePattern.FindAllString(text, -1) {
		if len(codes) == 0 || codes[len(codes)-1] != code {
			codes = append(codes, code)
		}
	}

	flight := &FlightDetails{}
	record := &ParsedRecord{Type: RecordFlight, Summary: optional(summary), Flight: flight}
	if len(codes) > 0 {
		flight.DepartureAirport = Ptr(codes[0])
		record.Departure = Ptr(codes[0])
	}
	if len(codes) > 1 {
		flight.ArrivalAirport = Ptr(codes[1])
		record.Arrival = Ptr(codes[1])
	}
	if m := flightNumberPattern.FindStringSubmatch(text); m != nil {
		flight.FlightNumber = Ptr(m[1] + m[2])
	}
	if len(dates) > 0 {
		flight.DepartureDate = Ptr(dates[0])
		record.StartDate = Ptr(dates[0])
	}
	return record
}

func (l *Legacy) parseAccommodation(text, summary string, dates []string) *ParsedRecord {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); len([]rune(line)) > 2 {
			lines = append(lines, line)
		}
	}

	hotelName := ""
	for _, line := range lines {
		collapsed := whitespacePattern.ReplaceAllString(line, "")
		if hasHotelKeyword(collapsed) && len([]rune(line)) < 100 {
			hotelName = strings.TrimSpace(hotelNoisePattern.ReplaceAllString(line, ""))
			break
		}
	}
	if hotelName == "" {
		// Longest of the first few header lines
		for i, line := range lines {
			if i >= 10 {
				break
			}
			if strings.Contains(line, "www.") || len([]rune(line)) <= 5 {
				continue
			}
			if len([]rune(line)) > len([]rune(hotelName)) {
				hotelName = line
			}
		}
	}
	hotelName = truncateRunes(whitespacePattern.ReplaceAllString(hotelName, " "), 50)

	checkInTime := timeNear(text, "체크인")
	if checkInTime == "" {
		checkInTime = timeNear(text, "Check-in")
	}
	if checkInTime == "" {
		checkInTime = timeNear(text, "PM")
	}

	details := &AccommodationDetails{
		HotelName:   optional(hotelName),
		CheckInTime: optional(checkInTime),
	}
	if len(dates) > 0 {
		details.CheckInDate = Ptr(dates[0])
		details.CheckOutDate = Ptr(dates[len(dates)-1])
	}
	return &ParsedRecord{Type: RecordAccommodation, Summary: optional(summary), Accommodation: details}
}

// extractDates returns every date found in text, deduplicated and sorted
func (l *Legacy) extractDates(text string) []string {
	year := l.now().Year()
	if y := yearPattern.FindString(text); y != "" {
		year, _ = strconv.Atoi(y)
	}

	seen := map[string]bool{}
	add := func(y, m, d int) {
		if date, ok := isoDate(y, m, d); ok {
			seen[date] = true
		}
	}

	for _, m := range koreanDatePattern.FindAllStringSubmatch(text, -1) {
		add(year, atoi(m[1]), atoi(m[2]))
	}
	for _, m := range numericDatePattern.FindAllStringSubmatch(text, -1) {
		add(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	for _, m := range englishDatePattern.FindAllStringSubmatch(text, -1) {
		day := m[1]
		if day == "" {
			day = m[3]
		}
		if day == "" {
			continue
		}
		y := year
		if m[4] != "" {
			y = atoi(m[4])
		}
		add(y, monthNumbers[strings.ToLower(m[2])], atoi(day))
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// timeNear finds the first clock time within 100 bytes after keyword
func timeNear(text, keyword string) string {
	loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword)).FindStringIndex(text)
	if loc == nil {
		return ""
	}
	end := loc[0] + 100
	if end > len(text) {
		end = len(text)
	}

	m := contextTimePattern.FindStringSubmatch(text[loc[0]:end])
	if m == nil {
		return ""
	}
	hours, minutes := atoi(m[2]), atoi(m[3])
	period := strings.ToUpper(m[1] + m[4])
	if period == "PM" && hours < 12 {
		hours += 12
	}
	if period == "AM" && hours == 12 {
		hours = 0
	}
	if hours > 23 || minutes > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func isoDate(y, m, d int) (string, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func summarize(text string) string {
	return truncateRunes(strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " ")), 500)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// hasHotelKeyword is case-sensitive: "Inn" must not match "dinner"
func hasHotelKeyword(line string) bool {
	return containsAny(line, hotelKeywords...)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
