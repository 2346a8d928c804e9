package storage

import (
	"time"

	"weekplanner/internal/dates"
)

// Completion is a task-level occurrence exception record: the template was
// marked complete on Day. Its presence is the completed state; removing it
// returns the occurrence to incomplete. At most one exists per (task, day).
type Completion struct {
	ID     string
	Owner  string
	TaskID string
	Day    dates.DayKey
	DoneAt time.Time
}

// SubItemCompletion is the sub-item-level exception record, independent of
// the parent's own completion for the same day.
type SubItemCompletion struct {
	ID           string
	Owner        string
	SubItemID    string
	ParentTaskID string
	Day          dates.DayKey
	DoneAt       time.Time
}

// TaskListFilter narrows ListTasks. Zero fields are ignored.
type TaskListFilter struct {
	Owner    string
	ParentID string
	Bucket   string
	Limit    int
	Offset   int
}
