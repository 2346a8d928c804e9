package model

import (
	"errors"
	"fmt"
	"time"

	"weekplanner/internal/dates"
)

var ErrInvalidFrequency = errors.New("model: invalid repeat frequency")

// Frequency is the repeat rule code attached to a recurring task. The codes
// are the planner's wire values and are stored as-is.
type Frequency string

const (
	FreqDaily         Frequency = "daily"
	FreqEveryOtherDay Frequency = "every-other-day"
	FreqWeekdays      Frequency = "weekdays"
	FreqWeekly        Frequency = "weekly"
	FreqBiWeekly      Frequency = "bi-weekly"
	FreqMonthly       Frequency = "monthly"
	FreqFirstOfMonth  Frequency = "first-of-month"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FreqDaily, FreqEveryOtherDay, FreqWeekdays, FreqWeekly, FreqBiWeekly, FreqMonthly, FreqFirstOfMonth:
		return true
	default:
		return false
	}
}

func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// Occurs reports whether a series with the given frequency and anchor date
// materializes on target. It is a pure function of the three calendar-date
// inputs: clocks are zeroed before any comparison, no occurrence exists
// before the anchor, and an unrecognized frequency never matches.
func Occurs(freq Frequency, anchor, target time.Time) bool {
	start := dates.Midnight(anchor)
	day := dates.Midnight(target)
	if day.Before(start) {
		return false
	}

	switch freq {
	case FreqDaily:
		return true
	case FreqEveryOtherDay:
		return dates.DaysBetween(start, day)%2 == 0
	case FreqWeekdays:
		wd := day.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case FreqWeekly:
		return dates.DaysBetween(start, day)%7 == 0
	case FreqBiWeekly:
		return dates.DaysBetween(start, day)%14 == 0
	case FreqMonthly:
		return monthlyOccurs(start, day)
	case FreqFirstOfMonth:
		return day.Day() == 1
	default:
		return false
	}
}

// monthlyOccurs matches the anchor's day-of-month, clamped to the length of
// the target month: a series anchored on the 31st fires on Feb 28 (29 in
// leap years) instead of skipping February.
func monthlyOccurs(start, day time.Time) bool {
	want := start.Day()
	if last := daysInMonth(day.Year(), day.Month()); want > last {
		want = last
	}
	return day.Day() == want
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TaskOccurs applies Occurs to a template, failing closed for anything that
// is not a well-formed recurring top-level task.
func TaskOccurs(t Task, target time.Time) bool {
	if !t.Recurring || t.IsSubItem() || !t.Frequency.IsValid() || t.Anchor.IsZero() {
		return false
	}
	return Occurs(t.Frequency, t.Anchor, target)
}

// OccurrenceRef identifies one calendar-date occurrence of a template task.
// It is a comparable value, usable directly as a map key; two refs are the
// same occurrence iff both fields match.
type OccurrenceRef struct {
	TaskID string       `json:"task_id"`
	Day    dates.DayKey `json:"day"`
}

// String renders a display form for logs and list keys. The struct itself,
// not this string, is the identity.
func (r OccurrenceRef) String() string {
	return r.TaskID + "@" + string(r.Day)
}
