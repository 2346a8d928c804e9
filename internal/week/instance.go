package week

import (
	"sort"
	"strings"
	"time"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
)

// Instance is the view-model unit for one calendar date: either a one-time
// task shown on its own date, a bank item, or one synthesized occurrence of
// a recurring series. Instances are derived on every materialization and
// never persisted.
type Instance struct {
	Ref         model.OccurrenceRef `json:"ref"`
	Bucket      model.Bucket        `json:"bucket"`
	Text        string              `json:"text"`
	URL         string              `json:"url,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	Recurring   bool                `json:"recurring"`
	Completed   bool                `json:"completed"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	SubItems    []SubInstance       `json:"sub_items,omitempty"`
}

// SubInstance is the per-date projection of a sub-item. For sub-items of a
// recurring parent the completed state comes from the sub-item exception
// table; for everything else the sub-item's own record is authoritative.
type SubInstance struct {
	Ref         model.OccurrenceRef `json:"ref"`
	Text        string              `json:"text"`
	Completed   bool                `json:"completed"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// IsRecurringInstance distinguishes single-occurrence mutations (one date,
// via exception record or forked copy) from template mutations (the whole
// series).
func (i Instance) IsRecurringInstance() bool {
	return i.Recurring
}

// DayColumn is one weekday of the materialized view.
type DayColumn struct {
	Day       dates.DayKey `json:"day"`
	Weekday   time.Weekday `json:"weekday"`
	Instances []Instance   `json:"instances"`
}

// View is the fully materialized week: seven day columns plus the
// unscheduled bank as its own list.
type View struct {
	Window dates.Window                `json:"-"`
	Days   [dates.WindowSize]DayColumn `json:"days"`
	Bank   []Instance                  `json:"bank"`
}

// Sort orders instances for presentation: incomplete before complete, then
// by text, then by ref for a stable tiebreak. Ordering is a display
// concern; the materializer itself makes no ordering promise.
func Sort(instances []Instance) {
	sort.SliceStable(instances, func(i, j int) bool {
		a, b := instances[i], instances[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if c := strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text)); c != 0 {
			return c < 0
		}
		return a.Ref.String() < b.Ref.String()
	})
}

// SortAll applies Sort to every column and the bank.
func (v *View) SortAll() {
	for i := range v.Days {
		Sort(v.Days[i].Instances)
	}
	Sort(v.Bank)
}

// Count returns the total number of instances in the view.
func (v *View) Count() int {
	n := len(v.Bank)
	for i := range v.Days {
		n += len(v.Days[i].Instances)
	}
	return n
}

// Find returns the instance with the given ref, searching the bank last.
func (v *View) Find(ref model.OccurrenceRef) (Instance, bool) {
	for i := range v.Days {
		for _, inst := range v.Days[i].Instances {
			if inst.Ref == ref {
				return inst, true
			}
		}
	}
	for _, inst := range v.Bank {
		if inst.Ref == ref {
			return inst, true
		}
	}
	return Instance{}, false
}
