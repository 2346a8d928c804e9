package week

import (
	"context"
	"fmt"
	"log"
	"time"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
	"weekplanner/internal/storage"
)

// Store is the read side of the planner's persistence boundary, the only
// part the materializer needs.
type Store interface {
	ListWeekTasks(ctx context.Context, owner string, start, end dates.DayKey) ([]model.Task, error)
	ListSubItems(ctx context.Context, parentIDs []string) ([]model.Task, error)
	ListTaskCompletions(ctx context.Context, taskIDs []string, from, to dates.DayKey) ([]storage.Completion, error)
	ListSubItemCompletions(ctx context.Context, subItemIDs []string, from, to dates.DayKey) ([]storage.SubItemCompletion, error)
}

// Materialize expands every template owned by owner into the window's task
// instances. Bank items pass through untouched, one-time tasks land on
// their anchor date if it falls inside the window, and recurring templates
// are evaluated against all seven dates with completion state merged in
// from the exception records.
//
// A template that fails validation is skipped with a log line; one corrupt
// record never blanks the week.
func Materialize(ctx context.Context, store Store, owner string, window dates.Window) (View, error) {
	view := View{Window: window}
	keys := window.Keys()
	for i := range view.Days {
		view.Days[i] = DayColumn{Day: keys[i], Weekday: keys[i].Weekday()}
	}

	start, end := keys[0], keys[dates.WindowSize-1]
	templates, err := store.ListWeekTasks(ctx, owner, start, end)
	if err != nil {
		return View{}, fmt.Errorf("week: list templates: %w", err)
	}

	valid := templates[:0]
	parentIDs := make([]string, 0, len(templates))
	recurringIDs := make([]string, 0, len(templates))
	for _, tpl := range templates {
		if err := tpl.Validate(); err != nil {
			log.Printf("week: skipping malformed template %s: %v", tpl.ID, err)
			continue
		}
		valid = append(valid, tpl)
		parentIDs = append(parentIDs, tpl.ID)
		if tpl.Recurring {
			recurringIDs = append(recurringIDs, tpl.ID)
		}
	}

	subItems, err := store.ListSubItems(ctx, parentIDs)
	if err != nil {
		return View{}, fmt.Errorf("week: list sub-items: %w", err)
	}
	subsByParent := make(map[string][]model.Task)
	subIDs := make([]string, 0, len(subItems))
	for _, sub := range subItems {
		if err := sub.Validate(); err != nil {
			log.Printf("week: skipping malformed sub-item %s: %v", sub.ID, err)
			continue
		}
		subsByParent[sub.ParentID] = append(subsByParent[sub.ParentID], sub)
		subIDs = append(subIDs, sub.ID)
	}

	taskDone, err := taskCompletionIndex(ctx, store, recurringIDs, start, end)
	if err != nil {
		return View{}, err
	}
	subDone, err := subItemCompletionIndex(ctx, store, subIDs, start, end)
	if err != nil {
		return View{}, err
	}

	for _, tpl := range valid {
		switch {
		case tpl.Bucket.IsBank():
			view.Bank = append(view.Bank, directInstance(tpl, subsByParent[tpl.ID]))
		case !tpl.Recurring:
			day := dates.Key(tpl.Anchor)
			if idx, ok := dayIndex(keys, day); ok {
				view.Days[idx].Instances = append(view.Days[idx].Instances, directInstance(tpl, subsByParent[tpl.ID]))
			}
		default:
			for idx, date := range window.Days() {
				if !model.TaskOccurs(tpl, date) {
					continue
				}
				inst := occurrenceInstance(tpl, keys[idx], taskDone, subDone, subsByParent[tpl.ID])
				view.Days[idx].Instances = append(view.Days[idx].Instances, inst)
			}
		}
	}

	return view, nil
}

func taskCompletionIndex(ctx context.Context, store Store, ids []string, from, to dates.DayKey) (map[model.OccurrenceRef]time.Time, error) {
	recs, err := store.ListTaskCompletions(ctx, ids, from, to)
	if err != nil {
		return nil, fmt.Errorf("week: list completions: %w", err)
	}
	out := make(map[model.OccurrenceRef]time.Time, len(recs))
	for _, rec := range recs {
		out[model.OccurrenceRef{TaskID: rec.TaskID, Day: rec.Day}] = rec.DoneAt
	}
	return out, nil
}

func subItemCompletionIndex(ctx context.Context, store Store, ids []string, from, to dates.DayKey) (map[model.OccurrenceRef]time.Time, error) {
	recs, err := store.ListSubItemCompletions(ctx, ids, from, to)
	if err != nil {
		return nil, fmt.Errorf("week: list sub-item completions: %w", err)
	}
	out := make(map[model.OccurrenceRef]time.Time, len(recs))
	for _, rec := range recs {
		out[model.OccurrenceRef{TaskID: rec.SubItemID, Day: rec.Day}] = rec.DoneAt
	}
	return out, nil
}

// directInstance projects a non-expanding template (bank item or one-time
// task) straight from its own record.
func directInstance(tpl model.Task, subs []model.Task) Instance {
	inst := Instance{
		Ref:         model.OccurrenceRef{TaskID: tpl.ID, Day: anchorKey(tpl)},
		Bucket:      tpl.Bucket,
		Text:        tpl.Text,
		URL:         tpl.URL,
		Notes:       tpl.Notes,
		Completed:   tpl.Done,
		CompletedAt: tpl.DoneAt,
	}
	for _, sub := range subs {
		inst.SubItems = append(inst.SubItems, SubInstance{
			Ref:         model.OccurrenceRef{TaskID: sub.ID, Day: anchorKey(tpl)},
			Text:        sub.Text,
			Completed:   sub.Done,
			CompletedAt: sub.DoneAt,
		})
	}
	return inst
}

// occurrenceInstance synthesizes one date's instance of a recurring series.
// Completion state, for the task and each sub-item, comes solely from the
// exception indexes; absence means incomplete.
func occurrenceInstance(tpl model.Task, day dates.DayKey, taskDone, subDone map[model.OccurrenceRef]time.Time, subs []model.Task) Instance {
	ref := model.OccurrenceRef{TaskID: tpl.ID, Day: day}
	inst := Instance{
		Ref:       ref,
		Bucket:    model.DayBucket(day.Weekday()),
		Text:      tpl.Text,
		URL:       tpl.URL,
		Notes:     tpl.Notes,
		Recurring: true,
	}
	if at, ok := taskDone[ref]; ok {
		inst.Completed = true
		done := at
		inst.CompletedAt = &done
	}
	for _, sub := range subs {
		subRef := model.OccurrenceRef{TaskID: sub.ID, Day: day}
		si := SubInstance{Ref: subRef, Text: sub.Text}
		if at, ok := subDone[subRef]; ok {
			si.Completed = true
			done := at
			si.CompletedAt = &done
		}
		inst.SubItems = append(inst.SubItems, si)
	}
	return inst
}

func anchorKey(tpl model.Task) dates.DayKey {
	if tpl.Anchor.IsZero() {
		return ""
	}
	return dates.Key(tpl.Anchor)
}

func dayIndex(keys [dates.WindowSize]dates.DayKey, day dates.DayKey) (int, bool) {
	for i, k := range keys {
		if k == day {
			return i, true
		}
	}
	return 0, false
}
