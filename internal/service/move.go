package service

import (
	"errors"
	"fmt"
	"time"

	"weekplanner/internal/dates"
)

var ErrInvalidMoveTarget = errors.New("service: invalid move target")

// MoveTarget is one of the planner's quick reschedule destinations,
// computed relative to the date being moved.
type MoveTarget string

const (
	MoveNextDay     MoveTarget = "next-day"
	MoveNextWeek    MoveTarget = "next-week"
	MoveNextWeekday MoveTarget = "next-weekday"
	MoveNextWeekend MoveTarget = "next-weekend"
)

func ParseMoveTarget(s string) (MoveTarget, error) {
	switch MoveTarget(s) {
	case MoveNextDay, MoveNextWeek, MoveNextWeekday, MoveNextWeekend:
		return MoveTarget(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMoveTarget, s)
	}
}

// From computes the destination date for a move starting at from,
// normalized to midnight. The destination is always strictly after from.
func (m MoveTarget) From(from time.Time) (time.Time, error) {
	base := dates.Midnight(from)
	switch m {
	case MoveNextDay:
		return dates.AddDays(base, 1), nil
	case MoveNextWeek:
		return dates.AddDays(base, 7), nil
	case MoveNextWeekday:
		next := dates.AddDays(base, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = dates.AddDays(next, 1)
		}
		return next, nil
	case MoveNextWeekend:
		next := dates.AddDays(base, 1)
		for next.Weekday() != time.Saturday {
			next = dates.AddDays(next, 1)
		}
		return next, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMoveTarget, m)
	}
}
