// Package timeutil provides UTC date handling shared by the fetch tools:
// parsing of user-supplied dates, day-boundary computation, and conversion
// between time.Time and the epoch-millisecond timestamps used by the
// exchange API.
package timeutil

import (
	"fmt"
	"time"
)

// Date formats accepted on the command line.
const (
	compactDateFormat = "20060102"
	isoDateFormat     = "2006-01-02"
)

// ParseDate parses a date string in either YYYYMMDD or YYYY-MM-DD form.
// The result is midnight UTC of that date.
func ParseDate(s string) (time.Time, error) {
	var layout string
	switch len(s) {
	case len(compactDateFormat):
		layout = compactDateFormat
	case len(isoDateFormat):
		layout = isoDateFormat
	default:
		return time.Time{}, fmt.Errorf("unknown date format for string '%s'", s)
	}

	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return t, nil
}

// ShortDate formats a date as YYYYMMDD.
func ShortDate(d time.Time) string {
	return d.UTC().Format(compactDateFormat)
}

// DayBounds returns the [start, end) boundaries of the UTC day containing d.
func DayBounds(d time.Time) (time.Time, time.Time) {
	d = d.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// DatesInRange expands [lower, upper) into the list of UTC days it covers.
func DatesInRange(lower, upper time.Time) []time.Time {
	var dates []time.Time
	for d, _ := DayBounds(lower); d.Before(upper); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// ToEpochMs converts a time to milliseconds since the Unix epoch.
func ToEpochMs(t time.Time) int64 {
	return t.UnixMilli()
}

// FromEpochMs converts milliseconds since the Unix epoch to a UTC time.
func FromEpochMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
