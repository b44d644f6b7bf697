package match

import (
	"strings"
	"time"
)

// Accepted layouts, tried in order; the first that parses wins.
var dateLayouts = []string{
	"2006-01-02", // ISO
	"02/01/2006", // European
	"01/02/2006", // US
	"02-01-2006",
	"2006/01/02",
}

// CompareDates compares two date strings for exact equality after parsing.
// Each side is returned normalized to ISO form when it parsed, or unchanged
// when it did not; an unparsable or absent side yields matched=false.
func CompareDates(a, b string) (matched bool, normalizedA, normalizedB string) {
	da, okA := parseDate(a)
	db, okB := parseDate(b)

	normalizedA = normalizeDate(a, da, okA)
	normalizedB = normalizeDate(b, db, okB)

	if !okA || !okB {
		return false, normalizedA, normalizedB
	}
	return da.Equal(db), normalizedA, normalizedB
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeDate(raw string, parsed time.Time, ok bool) string {
	if ok {
		return parsed.Format("2006-01-02")
	}
	return strings.TrimSpace(raw)
}
