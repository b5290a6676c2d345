package utils

import (
	"math"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
}

// ParseDate accepts the date formats the API and the date inputs produce.
func ParseDate(s string) (time.Time, bool) {
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

// FormatDate renders a date as dd/mm/yyyy. Unparseable values pass through.
func FormatDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}

// DateInput renders a date as yyyy-mm-dd for a date input.
func DateInput(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("2006-01-02")
}

// RentalDays is the number of started days between start and end.
func RentalDays(start, end string) (int, bool) {
	s, ok := ParseDate(start)
	if !ok {
		return 0, false
	}
	e, ok := ParseDate(end)
	if !ok {
		return 0, false
	}
	return int(math.Ceil(e.Sub(s).Hours() / 24)), true
}

// ShortID keeps the last six characters of a server id.
func ShortID(id string) string {
	r := []rune(id)
	if len(r) <= 6 {
		return id
	}
	return string(r[len(r)-6:])
}

// ParseBool reads checkbox and select values.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "1", "si", "sí", "yes":
		return true
	}
	return false
}
