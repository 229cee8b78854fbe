package generic

import "time"

// =============================================================================
// PERIOD - A closed date window, either end may be open
// =============================================================================

// Period is the window [Start, End]. A zero Start or End leaves that side
// unbounded, so the zero Period contains every instant.
//
// Examples:
//   - Marketing plan: 2025-03-01 .. 2025-05-31
//   - Last 30 days filter: now-30d .. (open)
type Period struct {
	Start time.Time
	End   time.Time
}

// Since returns the open-ended window starting at cutoff.
func Since(cutoff time.Time) Period {
	return Period{Start: cutoff}
}

// IsUnbounded reports whether neither side is set.
func (p Period) IsUnbounded() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Contains returns true if t is within [Start, End].
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

// Overlaps returns true if the two windows share at least one instant.
func (p Period) Overlaps(o Period) bool {
	if !p.End.IsZero() && !o.Start.IsZero() && p.End.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() && !p.Start.IsZero() && o.End.Before(p.Start) {
		return false
	}
	return true
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + formatBound(p.Start, "-inf") + ", " + formatBound(p.End, "+inf") + "]"
}

func formatBound(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return t.Format("2006-01-02")
}

// DaysBefore returns the instant n days before now.
func DaysBefore(now time.Time, n int) time.Time {
	return now.AddDate(0, 0, -n)
}
