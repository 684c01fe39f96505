package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	compactTimePattern = regexp.MustCompile(`^(\d{2})(\d{2})$`)
	clockTimePattern   = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?::\d{2})?$`)
	// a marker may sit on either side of the clock value
	meridiemTimePattern = regexp.MustCompile(`(?i)(?:(AM|PM|A\.M\.|P\.M\.|오전|오후)\s*)?(\d{1,2})(?:[:.](\d{2}))?\s*(AM|PM|A\.M\.|P\.M\.|오전|오후)?`)
	dateSeparators      = strings.NewReplacer(".", "-", "/", "-")
)

// NormalizeTime canonicalizes a time token to HH:mm. Input that cannot be
// read returns fallback, which may be empty.
func NormalizeTime(raw, fallback string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}

	if m := compactTimePattern.FindStringSubmatch(s); m != nil {
		if t, ok := clock(m[1], m[2]); ok {
			return t
		}
	}

	if m := clockTimePattern.FindStringSubmatch(s); m != nil {
		if t, ok := clock(m[1], m[2]); ok {
			return t
		}
	}

	for _, m := range meridiemTimePattern.FindAllStringSubmatch(s, -1) {
		marker := m[1]
		if marker == "" {
			marker = m[4]
		}
		if marker == "" {
			continue
		}
		hour, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 {
			continue
		}
		minutes := m[3]
		if minutes == "" {
			minutes = "00"
		}
		if isPM(marker) {
			if hour < 12 {
				hour += 12
			}
		} else if hour == 12 {
			hour = 0
		}
		if t, ok := clock(strconv.Itoa(hour), minutes); ok {
			return t
		}
	}

	return fallback
}

func isPM(marker string) bool {
	m := strings.ToUpper(strings.ReplaceAll(marker, ".", ""))
	return m == "PM" || m == "오후"
}

func clock(h, m string) (string, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// NormalizeDate rewrites . and / separators to - and zero-pads the result
// to YYYY-MM-DD. Components are never reordered; anything that is not a
// valid year-month-day date becomes "".
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(dateSeparators.Replace(raw))
	s = strings.TrimSuffix(s, "-")
	if s == "" {
		return ""
	}
	d, err := time.Parse("2006-1-2", s)
	if err != nil {
		return ""
	}
	return d.Format("2006-01-02")
}
