// Package dates provides calendar-day arithmetic for the week planner.
// All operations work on whole calendar days in the time's own location;
// nothing here converts through UTC, so a date west of UTC never shifts
// to the wrong day.
package dates

import (
	"fmt"
	"time"
)

const keyLayout = "2006-01-02"

// DayKey is the canonical YYYY-MM-DD key for one calendar date. It is the
// join key between task templates and completion exception records.
type DayKey string

// Key derives the DayKey from t's own calendar date.
func Key(t time.Time) DayKey {
	return DayKey(t.Format(keyLayout))
}

// ParseKey validates a YYYY-MM-DD string.
func ParseKey(s string) (DayKey, error) {
	if _, err := time.Parse(keyLayout, s); err != nil {
		return "", fmt.Errorf("dates: invalid day key %q: %w", s, err)
	}
	return DayKey(s), nil
}

// Time returns the key's date at midnight in loc.
func (k DayKey) Time(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(keyLayout, string(k), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Weekday reports the key's day of week. Zero value for malformed keys.
func (k DayKey) Weekday() time.Weekday {
	return k.Time(time.UTC).Weekday()
}

func (k DayKey) String() string { return string(k) }

// Midnight zeroes the clock while keeping the calendar date and location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves n calendar days from t, normalized to midnight.
func AddDays(t time.Time, n int) time.Time {
	return Midnight(t).AddDate(0, 0, n)
}

// DaysBetween counts whole calendar days from a to b (negative when b is
// earlier). Counting runs on calendar dates, not elapsed duration, so DST
// transitions inside the span do not skew the result.
func DaysBetween(a, b time.Time) int {
	from := Midnight(a)
	to := Midnight(b)
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	// Hop in 24h steps, then settle on calendar-date equality. The loop
	// runs at most twice past the estimate even across DST changes.
	days := int(to.Sub(from) / (24 * time.Hour))
	probe := from.AddDate(0, 0, days)
	for probe.Before(to) && !sameDate(probe, to) {
		days++
		probe = from.AddDate(0, 0, days)
	}
	for probe.After(to) && !sameDate(probe, to) {
		days--
		probe = from.AddDate(0, 0, days)
	}
	return sign * days
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WindowSize is the number of days in a week window.
const WindowSize = 7

// Window is a run of seven consecutive calendar dates starting at Anchor.
// Navigating the planner forward or back produces a new Window shifted by
// one day; the window itself is immutable.
type Window struct {
	anchor time.Time
}

// NewWindow builds the window anchored at t's calendar date.
func NewWindow(t time.Time) Window {
	return Window{anchor: Midnight(t)}
}

// Shift returns a window whose anchor is n days away.
func (w Window) Shift(n int) Window {
	return Window{anchor: AddDays(w.anchor, n)}
}

// Start returns the first date of the window at midnight.
func (w Window) Start() time.Time { return w.anchor }

// End returns the last (seventh) date of the window at midnight.
func (w Window) End() time.Time { return AddDays(w.anchor, WindowSize-1) }

// Day returns the date at offset i (0..6) from the anchor.
func (w Window) Day(i int) time.Time { return AddDays(w.anchor, i) }

// Days lists all seven dates in order.
func (w Window) Days() [WindowSize]time.Time {
	var out [WindowSize]time.Time
	for i := range out {
		out[i] = w.Day(i)
	}
	return out
}

// Keys lists the seven day keys in order.
func (w Window) Keys() [WindowSize]DayKey {
	var out [WindowSize]DayKey
	for i := range out {
		out[i] = Key(w.Day(i))
	}
	return out
}

// Contains reports whether k falls on one of the window's seven dates.
func (w Window) Contains(k DayKey) bool {
	for _, day := range w.Keys() {
		if day == k {
			return true
		}
	}
	return false
}
