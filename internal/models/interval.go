package models

import (
	"fmt"
	"strings"
)

// Interval is a kline interval in the exchange's notation.
type Interval string

// intervalMinutes maps every interval the exchange accepts to its length in
// minutes. A week is exact; a month is approximated at 30 days, which only
// affects how many sub-requests a day is split into, never the data itself.
var intervalMinutes = map[Interval]int{
	"1m": 1, "3m": 3, "5m": 5, "15m": 15, "30m": 30,
	"1h": 60, "2h": 120, "4h": 240, "6h": 360, "8h": 480, "12h": 720,
	"1d": 1440, "3d": 4320, "1w": 10080, "1M": 43200,
}

// intervalOrder keeps ValidIntervals deterministic for error messages.
var intervalOrder = []Interval{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

// ParseInterval validates s against the fixed interval set.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if _, ok := intervalMinutes[iv]; !ok {
		return "", fmt.Errorf("invalid interval '%s', valid intervals: %s",
			s, strings.Join(ValidIntervals(), " "))
	}
	return iv, nil
}

// ValidIntervals lists the accepted interval strings in ascending order.
func ValidIntervals() []string {
	out := make([]string, len(intervalOrder))
	for i, iv := range intervalOrder {
		out[i] = string(iv)
	}
	return out
}

// Minutes returns the interval length in minutes.
func (iv Interval) Minutes() int {
	return intervalMinutes[iv]
}

func (iv Interval) String() string {
	return string(iv)
}
