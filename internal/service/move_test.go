package service

import (
	"errors"
	"testing"
	"time"
)

func TestParseMoveTarget(t *testing.T) {
	for _, s := range []string{"next-day", "next-week", "next-weekday", "next-weekend"} {
		if _, err := ParseMoveTarget(s); err != nil {
			t.Fatalf("valid target %q rejected: %v", s, err)
		}
	}
	if _, err := ParseMoveTarget("tomorrow"); !errors.Is(err, ErrInvalidMoveTarget) {
		t.Fatalf("expected ErrInvalidMoveTarget, got %v", err)
	}
}

func TestMoveTargetFrom(t *testing.T) {
	friday := time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target MoveTarget
		from   time.Time
		want   string
	}{
		{"next day normalizes clock", MoveNextDay, friday, "2025-01-11"},
		{"next week", MoveNextWeek, wednesday, "2025-01-15"},
		{"next weekday skips weekend", MoveNextWeekday, friday, "2025-01-13"},
		{"next weekday midweek", MoveNextWeekday, wednesday, "2025-01-09"},
		{"next weekend midweek", MoveNextWeekend, wednesday, "2025-01-11"},
		{"next weekend from saturday is a full week", MoveNextWeekend, saturday, "2025-01-18"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.target.From(tc.from)
			if err != nil {
				t.Fatalf("From: %v", err)
			}
			if got.Format("2006-01-02") != tc.want {
				t.Fatalf("got %s want %s", got.Format("2006-01-02"), tc.want)
			}
			if got.Hour() != 0 || got.Minute() != 0 {
				t.Fatalf("destination not at midnight: %s", got)
			}
		})
	}
}
