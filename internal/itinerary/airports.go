package itinerary

import (
	"regexp"
	"strings"
)

// DefaultHomeAirports are the airports and cities treated as home when no
// set is configured
var DefaultHomeAirports = []string{
	"ICN", "GMP", "PUS", "CJU", "TAE", "CJJ", "MWX", "YNY",
	"인천", "김포", "김해", "제주", "대구", "청주", "무안", "양양", "서울", "부산",
}

var airportNames = map[string]string{
	"ICN": "인천국제공항",
	"GMP": "김포국제공항",
	"PUS": "김해국제공항",
	"CJU": "제주국제공항",
	"TAE": "대구국제공항",
	"CJJ": "청주국제공항",
	"MWX": "무안국제공항",
	"YNY": "양양국제공항",
	"KIX": "간사이국제공항",
	"NRT": "나리타국제공항",
	"HND": "하네다공항",
	"FUK": "후쿠오카공항",
	"CTS": "신치토세공항",
	"OKA": "나하공항",
}

var (
	iataPattern          = regexp.MustCompile(`^[A-Za-z]{3}$`)
	parentheticalPattern = regexp.MustCompile(`\(([^)]*)\)`)
)

// ResolveAirportName expands a bare IATA code to a display name such as
// "인천국제공항 (ICN)". Anything else is returned trimmed.
func ResolveAirportName(airport string) string {
	s := strings.TrimSpace(airport)
	if !iataPattern.MatchString(s) {
		return s
	}
	code := strings.ToUpper(s)
	if name, ok := airportNames[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// SameAirport is the fuzzy airport predicate: case-insensitive, ignoring
// surrounding whitespace and parenthetical annotations, true when either
// side contains the other. The annotations themselves are compared too, so
// "나하공항 (OKA)" matches "OKA".
func SameAirport(a, b string) bool {
	for _, x := range airportKeys(a) {
		for _, y := range airportKeys(b) {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				return true
			}
		}
	}
	return false
}

// airportKeys returns the non-empty comparable forms of an airport string
func airportKeys(s string) []string {
	var keys []string
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keys = append(keys, k)
		}
	}
	add(parentheticalPattern.ReplaceAllString(s, ""))
	for _, m := range parentheticalPattern.FindAllStringSubmatch(s, -1) {
		add(m[1])
	}
	return keys
}

func matchesAny(airport string, set []string) bool {
	for _, home := range set {
		if SameAirport(airport, home) {
			return true
		}
	}
	return false
}
