package trades

import "time"

const (
	// MaxWindow is the largest time span a single ranged trade request
	// covers, and the starting size for a fresh day.
	MaxWindow = time.Hour

	// minWindow keeps repeated halving from collapsing the window to zero.
	minWindow = time.Second
)

// NextWindowSize adapts the span of a time-ranged trade request. A full page
// means the range was truncated by the row cap, so the window halves and the
// range must be retried; a partial page lets the window grow by a quarter,
// capped at MaxWindow.
func NextWindowSize(current time.Duration, pageWasFull bool) time.Duration {
	if pageWasFull {
		next := current / 2
		if next < minWindow {
			next = minWindow
		}
		return next
	}
	next := current + current/4
	if next > MaxWindow {
		next = MaxWindow
	}
	return next
}
