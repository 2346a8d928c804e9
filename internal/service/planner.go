// Package service implements the planner's mutating operations on top of
// the storage repository: toggling per-date completion, rescheduling,
// recurrence management, and the bulk actions. Validation happens here,
// before anything reaches the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
	"weekplanner/internal/storage"
	"weekplanner/internal/week"
)

var (
	ErrNotRecurring  = errors.New("service: task is not recurring")
	ErrSubItemRepeat = errors.New("service: sub-items cannot repeat")
	ErrBankRepeat    = errors.New("service: bank items cannot repeat")
	ErrBankMove      = errors.New("service: bank items have no date to move")
	ErrNoOccurrence  = errors.New("service: series has no occurrence on that date")
)

// Planner owns the week's operations for a single user.
type Planner struct {
	store storage.Repository
	owner string
	now   func() time.Time

	// Guards the make-recurring/stop-recurring pair, which fans out
	// multiple writes. Scoped to this Planner, not the process.
	repeatMu sync.Mutex
}

func NewPlanner(store storage.Repository, owner string) *Planner {
	return &Planner{store: store, owner: owner, now: time.Now}
}

// Owner returns the user this planner operates for.
func (p *Planner) Owner() string { return p.owner }

// Store exposes the underlying repository for maintenance jobs.
func (p *Planner) Store() storage.Repository { return p.store }

// Week materializes and sorts the seven-day view anchored at anchor.
func (p *Planner) Week(ctx context.Context, anchor time.Time) (week.View, error) {
	view, err := week.Materialize(ctx, p.store, p.owner, dates.NewWindow(anchor))
	if err != nil {
		return week.View{}, err
	}
	view.SortAll()
	return view, nil
}

// CreateInput carries the user-supplied fields of a new task.
type CreateInput struct {
	Text     string
	URL      string
	Notes    string
	Bucket   model.Bucket
	Anchor   time.Time
	ParentID string
}

// CreateTask validates and persists a new template task or sub-item.
func (p *Planner) CreateTask(ctx context.Context, in CreateInput) (model.Task, error) {
	task := model.Task{
		ID:        uuid.NewString(),
		Owner:     p.owner,
		Text:      in.Text,
		CreatedAt: p.now(),
		Anchor:    dates.Midnight(in.Anchor),
		Bucket:    in.Bucket,
		URL:       in.URL,
		Notes:     in.Notes,
		ParentID:  in.ParentID,
	}
	if in.Anchor.IsZero() {
		task.Anchor = time.Time{}
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := p.store.CreateTask(ctx, task); err != nil {
		return model.Task{}, fmt.Errorf("service: create task: %w", err)
	}
	return task, nil
}

// UpdateText renames a task after re-validating the new text.
func (p *Planner) UpdateText(ctx context.Context, id, text string) error {
	return p.mutate(ctx, id, func(t *model.Task) { t.Text = text })
}

// SetNotes replaces a task's free-text notes.
func (p *Planner) SetNotes(ctx context.Context, id, notes string) error {
	return p.mutate(ctx, id, func(t *model.Task) { t.Notes = notes })
}

// SetURL replaces a task's link; only http/https survive validation.
func (p *Planner) SetURL(ctx context.Context, id, url string) error {
	return p.mutate(ctx, id, func(t *model.Task) { t.URL = url })
}

func (p *Planner) mutate(ctx context.Context, id string, apply func(*model.Task)) error {
	task, err := p.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	apply(&task)
	if err := task.Validate(); err != nil {
		return err
	}
	return p.store.UpdateTask(ctx, task)
}

// DeleteTask removes a template with its sub-items and exception records.
func (p *Planner) DeleteTask(ctx context.Context, id string) error {
	return p.store.DeleteTask(ctx, id)
}

// ToggleTask flips one occurrence's completion. For a recurring template
// the flip is an exception-record upsert or delete keyed by ref.Day; for
// everything else it flips the template's own done fields and ref.Day is
// ignored. Both directions are idempotent at the store.
func (p *Planner) ToggleTask(ctx context.Context, ref model.OccurrenceRef) error {
	task, err := p.store.GetTask(ctx, ref.TaskID)
	if err != nil {
		return err
	}
	if !task.Recurring {
		return p.flipDirect(ctx, task)
	}
	// Only dates the series fires on may carry exception records; anything
	// else would be an orphan no view ever reads.
	if !model.TaskOccurs(task, ref.Day.Time(time.Local)) {
		return ErrNoOccurrence
	}

	recs, err := p.store.ListTaskCompletions(ctx, []string{ref.TaskID}, ref.Day, ref.Day)
	if err != nil {
		return fmt.Errorf("service: read completion: %w", err)
	}
	if len(recs) > 0 {
		return p.store.DeleteTaskCompletion(ctx, ref.TaskID, ref.Day)
	}
	return p.store.UpsertTaskCompletion(ctx, p.owner, ref.TaskID, ref.Day, p.now())
}

// ToggleSubItem flips a sub-item's completion for one date. With a
// recurring parent the state lives in the sub-item exception table and is
// independent of the parent's own record for that date.
func (p *Planner) ToggleSubItem(ctx context.Context, ref model.OccurrenceRef) error {
	sub, err := p.store.GetTask(ctx, ref.TaskID)
	if err != nil {
		return err
	}
	if !sub.IsSubItem() {
		return fmt.Errorf("service: task %s is not a sub-item", ref.TaskID)
	}
	parent, err := p.store.GetTask(ctx, sub.ParentID)
	if err != nil {
		return err
	}
	if !parent.Recurring {
		return p.flipDirect(ctx, sub)
	}
	if !model.TaskOccurs(parent, ref.Day.Time(time.Local)) {
		return ErrNoOccurrence
	}

	recs, err := p.store.ListSubItemCompletions(ctx, []string{ref.TaskID}, ref.Day, ref.Day)
	if err != nil {
		return fmt.Errorf("service: read sub-item completion: %w", err)
	}
	if len(recs) > 0 {
		return p.store.DeleteSubItemCompletion(ctx, ref.TaskID, ref.Day)
	}
	return p.store.UpsertSubItemCompletion(ctx, p.owner, ref.TaskID, parent.ID, ref.Day, p.now())
}

func (p *Planner) flipDirect(ctx context.Context, task model.Task) error {
	if task.Done {
		task.Done = false
		task.DoneAt = nil
	} else {
		task.Done = true
		at := p.now()
		task.DoneAt = &at
	}
	return p.store.UpdateTask(ctx, task)
}

// SetRepeat turns a template into the head of a recurring series. The
// existing anchor date becomes the first occurrence.
func (p *Planner) SetRepeat(ctx context.Context, id string, freq model.Frequency) error {
	p.repeatMu.Lock()
	defer p.repeatMu.Unlock()

	task, err := p.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.IsSubItem() {
		return ErrSubItemRepeat
	}
	if task.Bucket.IsBank() {
		return ErrBankRepeat
	}
	task.Recurring = true
	task.Frequency = freq
	// The template's own done fields stop meaning anything once per-date
	// records take over.
	task.Done = false
	task.DoneAt = nil
	if err := task.Validate(); err != nil {
		return err
	}
	return p.store.UpdateTask(ctx, task)
}

// ClearRepeat stops a series and discards its exception records.
func (p *Planner) ClearRepeat(ctx context.Context, id string) error {
	p.repeatMu.Lock()
	defer p.repeatMu.Unlock()

	task, err := p.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !task.Recurring {
		return nil
	}
	task.Recurring = false
	task.Frequency = ""
	if err := task.Validate(); err != nil {
		return err
	}
	if err := p.store.UpdateTask(ctx, task); err != nil {
		return err
	}
	return p.store.DeleteCompletionsForTask(ctx, id)
}

// MoveTask reschedules the template itself. For a recurring series this
// rewrites the anchor, which resets the parity baseline of the
// every-other-day and bi-weekly rules.
func (p *Planner) MoveTask(ctx context.Context, id string, target MoveTarget) error {
	task, err := p.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Bucket.IsBank() {
		return ErrBankMove
	}
	dest, err := target.From(task.Anchor)
	if err != nil {
		return err
	}
	task.Anchor = dest
	task.Bucket = model.DayBucket(dest.Weekday())
	if err := task.Validate(); err != nil {
		return err
	}
	return p.store.UpdateTask(ctx, task)
}

// MoveOccurrence reschedules a single occurrence of a recurring series by
// forking a standalone copy (sub-items included) onto the destination
// date. The series itself is untouched.
func (p *Planner) MoveOccurrence(ctx context.Context, ref model.OccurrenceRef, target MoveTarget) (model.Task, error) {
	tpl, err := p.store.GetTask(ctx, ref.TaskID)
	if err != nil {
		return model.Task{}, err
	}
	if !tpl.Recurring {
		return model.Task{}, ErrNotRecurring
	}
	dest, err := target.From(ref.Day.Time(time.Local))
	if err != nil {
		return model.Task{}, err
	}

	fork := model.Task{
		ID:        uuid.NewString(),
		Owner:     p.owner,
		Text:      tpl.Text,
		CreatedAt: p.now(),
		Anchor:    dest,
		Bucket:    model.DayBucket(dest.Weekday()),
		URL:       tpl.URL,
		Notes:     tpl.Notes,
	}
	if err := fork.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := p.store.CreateTask(ctx, fork); err != nil {
		return model.Task{}, fmt.Errorf("service: fork occurrence: %w", err)
	}

	subs, err := p.store.ListSubItems(ctx, []string{tpl.ID})
	if err != nil {
		return model.Task{}, fmt.Errorf("service: fork sub-items: %w", err)
	}
	for _, sub := range subs {
		dup := model.Task{
			ID:        uuid.NewString(),
			Owner:     p.owner,
			Text:      sub.Text,
			CreatedAt: p.now(),
			Anchor:    dest,
			Bucket:    fork.Bucket,
			ParentID:  fork.ID,
		}
		if err := p.store.CreateTask(ctx, dup); err != nil {
			return model.Task{}, fmt.Errorf("service: fork sub-item %s: %w", sub.ID, err)
		}
	}
	return fork, nil
}

// Bulk operations fan out one write per selection without a transaction: a
// failure stops nothing else, the errors come back joined, and the next
// full week fetch reconciles whatever landed.

func (p *Planner) BulkComplete(ctx context.Context, refs []model.OccurrenceRef) error {
	var errs []error
	for _, ref := range refs {
		if err := p.completeOne(ctx, ref); err != nil {
			errs = append(errs, fmt.Errorf("complete %s: %w", ref, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Planner) completeOne(ctx context.Context, ref model.OccurrenceRef) error {
	task, err := p.store.GetTask(ctx, ref.TaskID)
	if err != nil {
		return err
	}
	if task.Recurring {
		if !model.TaskOccurs(task, ref.Day.Time(time.Local)) {
			return ErrNoOccurrence
		}
		// Upsert, not toggle: completing an already-complete occurrence
		// stays complete.
		return p.store.UpsertTaskCompletion(ctx, p.owner, ref.TaskID, ref.Day, p.now())
	}
	if task.Done {
		return nil
	}
	return p.flipDirect(ctx, task)
}

func (p *Planner) BulkMove(ctx context.Context, ids []string, target MoveTarget) error {
	var errs []error
	for _, id := range ids {
		if err := p.MoveTask(ctx, id, target); err != nil {
			errs = append(errs, fmt.Errorf("move %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Planner) BulkRepeat(ctx context.Context, ids []string, freq model.Frequency) error {
	var errs []error
	for _, id := range ids {
		if err := p.SetRepeat(ctx, id, freq); err != nil {
			errs = append(errs, fmt.Errorf("repeat %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Planner) BulkDelete(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := p.DeleteTask(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
