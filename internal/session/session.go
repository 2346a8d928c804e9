// Package session keeps a user's materialized week in memory and applies
// mutations to it optimistically: the cached view flips before the store
// write. If the write fails, a rollback captured before the flip restores
// the single touched instance instead of refetching the whole week.
package session

import (
	"context"
	"time"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
	"weekplanner/internal/week"
)

// Planner is the slice of the service layer the session drives.
type Planner interface {
	Week(ctx context.Context, anchor time.Time) (week.View, error)
	ToggleTask(ctx context.Context, ref model.OccurrenceRef) error
	ToggleSubItem(ctx context.Context, ref model.OccurrenceRef) error
}

type Session struct {
	planner Planner
	anchor  time.Time
	view    week.View
	loaded  bool
}

func New(planner Planner, anchor time.Time) *Session {
	return &Session{planner: planner, anchor: anchor}
}

// Refresh re-materializes the week from the store. This is the
// reconciliation path after failures or external writes.
func (s *Session) Refresh(ctx context.Context) error {
	view, err := s.planner.Week(ctx, s.anchor)
	if err != nil {
		return err
	}
	s.view = view
	s.loaded = true
	return nil
}

// View returns the current cached week, loading it on first use.
func (s *Session) View(ctx context.Context) (week.View, error) {
	if !s.loaded {
		if err := s.Refresh(ctx); err != nil {
			return week.View{}, err
		}
	}
	return s.view, nil
}

// Shift moves the window anchor by n days and reloads.
func (s *Session) Shift(ctx context.Context, n int) error {
	s.anchor = dates.AddDays(s.anchor, n)
	return s.Refresh(ctx)
}

// ToggleTask optimistically flips one occurrence in the cached view, then
// performs the store write. On failure the captured rollback restores the
// instance and the error is returned for the caller to surface.
func (s *Session) ToggleTask(ctx context.Context, ref model.OccurrenceRef) error {
	rollback := s.flipInstance(ref)
	if err := s.planner.ToggleTask(ctx, ref); err != nil {
		rollback()
		return err
	}
	return nil
}

// ToggleSubItem does the same for a sub-item occurrence.
func (s *Session) ToggleSubItem(ctx context.Context, ref model.OccurrenceRef) error {
	rollback := s.flipSubInstance(ref)
	if err := s.planner.ToggleSubItem(ctx, ref); err != nil {
		rollback()
		return err
	}
	return nil
}

// flipInstance flips the cached instance with the given ref and returns a
// rollback restoring its previous completion state. When the instance is
// not in the cached window the flip is a no-op and so is the rollback.
func (s *Session) flipInstance(ref model.OccurrenceRef) func() {
	inst := s.findInstance(ref)
	if inst == nil {
		return func() {}
	}
	prevDone, prevAt := inst.Completed, inst.CompletedAt
	inst.Completed = !inst.Completed
	if inst.Completed {
		at := time.Now()
		inst.CompletedAt = &at
	} else {
		inst.CompletedAt = nil
	}
	return func() {
		inst.Completed = prevDone
		inst.CompletedAt = prevAt
	}
}

func (s *Session) flipSubInstance(ref model.OccurrenceRef) func() {
	sub := s.findSubInstance(ref)
	if sub == nil {
		return func() {}
	}
	prevDone, prevAt := sub.Completed, sub.CompletedAt
	sub.Completed = !sub.Completed
	if sub.Completed {
		at := time.Now()
		sub.CompletedAt = &at
	} else {
		sub.CompletedAt = nil
	}
	return func() {
		sub.Completed = prevDone
		sub.CompletedAt = prevAt
	}
}

func (s *Session) findInstance(ref model.OccurrenceRef) *week.Instance {
	for d := range s.view.Days {
		col := &s.view.Days[d]
		for i := range col.Instances {
			if col.Instances[i].Ref == ref {
				return &col.Instances[i]
			}
		}
	}
	for i := range s.view.Bank {
		if s.view.Bank[i].Ref == ref {
			return &s.view.Bank[i]
		}
	}
	return nil
}

func (s *Session) findSubInstance(ref model.OccurrenceRef) *week.SubInstance {
	for d := range s.view.Days {
		col := &s.view.Days[d]
		for i := range col.Instances {
			subs := col.Instances[i].SubItems
			for j := range subs {
				if subs[j].Ref == ref {
					return &subs[j]
				}
			}
		}
	}
	return nil
}
