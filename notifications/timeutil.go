package notifications

import (
	"strings"
	"time"
)

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// scheduleLayouts are tried in order. Layouts without a zone are read as UTC.
var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatTime renders t as an ISO 8601 UTC timestamp with milliseconds.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ParseTime resolves a scheduledAt value. ok is false for empty or
// unrecognized input.
func ParseTime(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NextMonthly advances t by one calendar month. Day overflow carries into
// the following month, so Jan 31 becomes Mar 2 or Mar 3.
func NextMonthly(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}
