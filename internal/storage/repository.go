package storage

import (
	"context"
	"errors"
	"time"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Repository is the planner's persistence boundary: template task CRUD plus
// the two exception tables tracking per-date completion of recurring tasks
// and their sub-items.
//
// The completion methods are idempotent from the caller's side: upserting an
// already-present (id, day) pair changes nothing, and deleting an absent
// record is a no-op rather than an error.
type Repository interface {
	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)

	// ListWeekTasks returns the top-level templates that can contribute an
	// instance to the window: every bank item, every recurring template
	// whose series starts on or before the window's end, and every
	// one-time task dated inside the window.
	ListWeekTasks(ctx context.Context, owner string, start, end dates.DayKey) ([]model.Task, error)
	ListSubItems(ctx context.Context, parentIDs []string) ([]model.Task, error)

	UpsertTaskCompletion(ctx context.Context, owner, taskID string, day dates.DayKey, at time.Time) error
	DeleteTaskCompletion(ctx context.Context, taskID string, day dates.DayKey) error
	ListTaskCompletions(ctx context.Context, taskIDs []string, from, to dates.DayKey) ([]Completion, error)

	UpsertSubItemCompletion(ctx context.Context, owner, subItemID, parentTaskID string, day dates.DayKey, at time.Time) error
	DeleteSubItemCompletion(ctx context.Context, subItemID string, day dates.DayKey) error
	ListSubItemCompletions(ctx context.Context, subItemIDs []string, from, to dates.DayKey) ([]SubItemCompletion, error)

	// DeleteCompletionsForTask removes every exception record tied to the
	// template, task-level and sub-item-level alike. Used when a series
	// stops being recurring; the records are meaningless without the rule.
	DeleteCompletionsForTask(ctx context.Context, taskID string) error

	// PruneCompletions deletes exception records from both tables whose day
	// is strictly before the horizon, returning how many went away.
	PruneCompletions(ctx context.Context, before dates.DayKey) (int64, error)
}
