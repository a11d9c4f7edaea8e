// Package dateutil provides the date arithmetic the contact and renewal
// rules are built on. The distinction between calendar-day differences
// (midnight boundaries, timezone-local) and 24-hour-bucket differences is
// load-bearing: the urgency rules use one or the other depending on the
// student's status, and they are not interchangeable.
package dateutil

import (
	"log/slog"
	"strings"
	"time"
)

// HoursBetween returns the number of whole hours from earlier to later.
// Negative when later is before earlier.
func HoursBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours())
}

// DaysBetween returns the number of whole 24-hour buckets from earlier to
// later. A contact 23 hours ago is 0 days back, regardless of midnight.
func DaysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

// CalendarDaysBetween returns the number of midnight boundaries crossed
// between the two instants, in later's location. A contact at 23:59
// yesterday is 1 calendar day back even though it is under an hour old.
func CalendarDaysBetween(earlier, later time.Time) int {
	loc := later.Location()
	a := StartOfDay(earlier.In(loc))
	b := StartOfDay(later)
	return int(b.Sub(a).Hours() / 24)
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays returns t plus n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddMonths returns t plus n calendar months. Month arithmetic follows the
// calendar, not a fixed day count: Jan 31 + 12 months is Jan 31 of the next
// year, not 365 days later.
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// parseLayouts are tried in order after ISO-8601 fails. Day-first layouts
// come first because the source data is European.
var parseLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	"2-1-2006",
	"2006/01/02",
	"2006-01-02",
}

// isoLayouts cover the strict ISO-8601 shapes the remote store emits.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseLenient parses value as a date, trying strict ISO-8601 first and
// then a fixed list of common locale layouts. It never fails: when nothing
// matches, it returns now and logs a warning, so a single malformed import
// row never aborts a batch.
// POST: returned time is valid; fallback rows are logged as date_parse_fallback
func ParseLenient(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return t
		}
	}

	slog.Warn("date_parse_fallback", "value", value)
	return now
}
