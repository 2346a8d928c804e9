package week

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
	"weekplanner/internal/storage"
)

const owner = "local"

func setupStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "week-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	if err := storage.MigrateUp(repo.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func addTask(t *testing.T, repo *storage.SQLiteRepository, task model.Task) {
	t.Helper()
	if task.Owner == "" {
		task.Owner = owner
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("create %s: %v", task.ID, err)
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekInstances(v View) map[dates.DayKey][]Instance {
	out := make(map[dates.DayKey][]Instance)
	for _, col := range v.Days {
		if len(col.Instances) > 0 {
			out[col.Day] = col.Instances
		}
	}
	return out
}

func TestMaterializeWeeklySeries(t *testing.T) {
	repo := setupStore(t)
	addTask(t, repo, model.Task{
		ID:        "stretch",
		Text:      "Stretch",
		Anchor:    day(2025, 1, 5), // Sunday
		Bucket:    model.DayBucket(time.Sunday),
		Recurring: true,
		Frequency: model.FreqWeekly,
	})

	view, err := Materialize(t.Context(), repo, owner, dates.NewWindow(day(2025, 1, 5)))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if view.Count() != 1 {
		t.Fatalf("expected exactly one instance, got %d", view.Count())
	}
	got := view.Days[0]
	if got.Weekday != time.Sunday || len(got.Instances) != 1 {
		t.Fatalf("instance not in Sunday column: %+v", weekInstances(view))
	}
	inst := got.Instances[0]
	if inst.Ref != (model.OccurrenceRef{TaskID: "stretch", Day: "2025-01-05"}) {
		t.Fatalf("unexpected ref: %+v", inst.Ref)
	}
	if !inst.IsRecurringInstance() || inst.Completed {
		t.Fatalf("unexpected instance state: %+v", inst)
	}

	// Next week: the same series fires exactly once, on Jan 12.
	next, err := Materialize(t.Context(), repo, owner, dates.NewWindow(day(2025, 1, 12)))
	if err != nil {
		t.Fatalf("materialize next week: %v", err)
	}
	if next.Count() != 1 {
		t.Fatalf("expected one instance next week, got %d", next.Count())
	}
	if next.Days[0].Instances[0].Ref.Day != "2025-01-12" {
		t.Fatalf("unexpected next-week day: %+v", next.Days[0].Instances[0].Ref)
	}
}

func TestMaterializeDailySeriesFillsWeek(t *testing.T) {
	repo := setupStore(t)
	addTask(t, repo, model.Task{
		ID:        "vitamins",
		Text:      "Vitamins",
		Anchor:    day(2025, 1, 1),
		Bucket:    model.DayBucket(time.Wednesday),
		Recurring: true,
		Frequency: model.FreqDaily,
	})

	view, err := Materialize(t.Context(), repo, owner, dates.NewWindow(day(2025, 1, 5)))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if view.Count() != 7 {
		t.Fatalf("daily series should fill the week, got %d", view.Count())
	}
	for i, col := range view.Days {
		if len(col.Instances) != 1 {
			t.Fatalf("day %d has %d instances", i, len(col.Instances))
		}
	}
}

func TestMaterializeOneTimeTask(t *testing.T) {
	repo := setupStore(t)
	addTask(t, repo, model.Task{
		ID:     "dentist",
		Text:   "Dentist",
		Anchor: day(2025, 1, 10), // Friday
		Bucket: model.DayBucket(time.Friday),
	})

	inWindow, err := Materialize(t.Context(), repo, owner, dates.NewWindow(day(2025, 1, 5)))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if inWindow.Count() != 1 {
		t.Fatalf("expected one instance, got %d", inWindow.Count())
	}
	col := inWindow.Days[5] // Jan 10 is offset 5 from Jan 5
	if col.Weekday != time.Friday || len(col.Instances) != 1 {
		t.Fatalf("instance not in Friday column: %+v", weekInstances(inWindow))
	}
	if col.Instances[0].IsRecurringInstance() {
		t.Fatal("one-time task must not be a recurring instance")
	}

	nextWeek, err := Materialize(t.Context(), repo, owner, dates.NewWindow(day(2025, 1, 12)))
	if err != nil {
		t.Fatalf("materialize next week: %v", err)
	}
	if nextWeek.Count() != 0 {
		t.Fatalf("one-time task leaked into the next week: %+v", weekInstances(nextWeek))
	}
}

func TestMaterializeBankItemNeverDuplicates(t *testing.T) {
	repo := setupStore(t)
	addTask(t, repo, model.Task{
		ID:     "someday",
		Text:   "Read that book",
		Bucket: model.BankBucket(),
	})

	for _, anchor := range []time.Time{day(2025, 1, 5), day(2025, 1, 8), day(2025, 6, 1)} {
		view, err := Materialize(t.Context(), repo, owner, dates.NewWindow(anchor))
		if err != nil {
			t.Fatalf("materialize %s: %v", anchor, err)
		}
		if len(view.Bank) != 1 {
			t.Fatalf("bank should hold exactly one item, got %d", len(view.Bank))
		}
		for _, col := range view.Days {
			if len(col.Instances) != 0 {
				t.Fatalf("bank item leaked into weekday column %s", col.Day)
			}
		}
	}
}

func TestMaterializeCompletionRoundTrip(t *testing.T) {
	repo := setupStore(t)
	ctx := t.Context()
	addTask(t, repo, model.Task{
		ID:        "run",
		Text:      "Run",
		Anchor:    day(2025, 1, 1),
		Bucket:    model.DayBucket(time.Wednesday),
		Recurring: true,
		Frequency: model.FreqDaily,
	})
	window := dates.NewWindow(day(2025, 1, 5))

	before, err := Materialize(ctx, repo, owner, window)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	for _, col := range before.Days {
		if col.Instances[0].Completed {
			t.Fatalf("no occurrence should start completed: %s", col.Day)
		}
	}

	at := time.Date(2025, 1, 7, 18, 30, 0, 0, time.UTC)
	if err := repo.UpsertTaskCompletion(ctx, owner, "run", "2025-01-07", at); err != nil {
		t.Fatalf("upsert completion: %v", err)
	}

	after, err := Materialize(ctx, repo, owner, window)
	if err != nil {
		t.Fatalf("re-materialize: %v", err)
	}
	for _, col := range after.Days {
		inst := col.Instances[0]
		if col.Day == "2025-01-07" {
			if !inst.Completed || inst.CompletedAt == nil || !inst.CompletedAt.Equal(at) {
				t.Fatalf("toggled occurrence not completed: %+v", inst)
			}
			continue
		}
		if inst.Completed {
			t.Fatalf("sibling occurrence on %s must stay incomplete", col.Day)
		}
	}
}

func TestMaterializeSubItemCompletionIsPerDate(t *testing.T) {
	repo := setupStore(t)
	ctx := t.Context()
	addTask(t, repo, model.Task{
		ID:        "review",
		Text:      "Weekly review",
		Anchor:    day(2025, 1, 6), // Monday
		Bucket:    model.DayBucket(time.Monday),
		Recurring: true,
		Frequency: model.FreqWeekly,
	})
	addTask(t, repo, model.Task{
		ID:       "inbox",
		Text:     "Clear inbox",
		Anchor:   day(2025, 1, 6),
		Bucket:   model.DayBucket(time.Monday),
		ParentID: "review",
	})

	at := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	if err := repo.UpsertSubItemCompletion(ctx, owner, "inbox", "review", "2025-01-06", at); err != nil {
		t.Fatalf("upsert sub completion: %v", err)
	}

	thisWeek, err := Materialize(ctx, repo, owner, dates.NewWindow(day(2025, 1, 5)))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	inst, ok := thisWeek.Find(model.OccurrenceRef{TaskID: "review", Day: "2025-01-06"})
	if !ok {
		t.Fatal("missing Monday occurrence")
	}
	if len(inst.SubItems) != 1 || !inst.SubItems[0].Completed {
		t.Fatalf("sub-item should be completed this week: %+v", inst.SubItems)
	}
	if inst.Completed {
		t.Fatal("parent occurrence must stay incomplete")
	}

	nextWeek, err := Materialize(ctx, repo, owner, dates.NewWindow(day(2025, 1, 12)))
	if err != nil {
		t.Fatalf("materialize next week: %v", err)
	}
	inst, ok = nextWeek.Find(model.OccurrenceRef{TaskID: "review", Day: "2025-01-13"})
	if !ok {
		t.Fatal("missing next Monday occurrence")
	}
	if len(inst.SubItems) != 1 || inst.SubItems[0].Completed {
		t.Fatalf("sub-item completion must not carry to the next date: %+v", inst.SubItems)
	}
}

func TestMaterializeSkipsMalformedTemplate(t *testing.T) {
	repo := setupStore(t)
	addTask(t, repo, model.Task{
		ID:     "good",
		Text:   "Fine task",
		Anchor: day(2025, 1, 6),
		Bucket: model.DayBucket(time.Monday),
	})
	// Recurring without a frequency scans fine but fails validation.
	if _, err := repo.DB().Exec(`
		INSERT INTO tasks (id, owner, text, done, created_at, anchor, bucket, recurring, frequency, url, notes)
		VALUES ('broken', 'local', 'Broken', 0, '2025-01-01T08:00:00Z', '2025-01-06', 'MONDAY', 1, '', '', '')`); err != nil {
		t.Fatalf("insert broken row: %v", err)
	}

	view, err := Materialize(t.Context(), repo, owner, dates.NewWindow(day(2025, 1, 5)))
	if err != nil {
		t.Fatalf("materialize should survive a corrupt row: %v", err)
	}
	if view.Count() != 1 {
		t.Fatalf("expected only the valid task, got %d instances", view.Count())
	}
	if _, ok := view.Find(model.OccurrenceRef{TaskID: "good", Day: "2025-01-06"}); !ok {
		t.Fatal("valid task missing from view")
	}
}

type failingStore struct {
	err error
}

func (f failingStore) ListWeekTasks(context.Context, string, dates.DayKey, dates.DayKey) ([]model.Task, error) {
	return nil, f.err
}

func (f failingStore) ListSubItems(context.Context, []string) ([]model.Task, error) {
	return nil, f.err
}

func (f failingStore) ListTaskCompletions(context.Context, []string, dates.DayKey, dates.DayKey) ([]storage.Completion, error) {
	return nil, f.err
}

func (f failingStore) ListSubItemCompletions(context.Context, []string, dates.DayKey, dates.DayKey) ([]storage.SubItemCompletion, error) {
	return nil, f.err
}

func TestMaterializeSurfacesStoreErrors(t *testing.T) {
	wantErr := errors.New("store down")
	_, err := Materialize(t.Context(), failingStore{err: wantErr}, owner, dates.NewWindow(day(2025, 1, 5)))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestSortOrdersIncompleteFirstThenText(t *testing.T) {
	done := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	instances := []Instance{
		{Ref: model.OccurrenceRef{TaskID: "c", Day: "2025-01-06"}, Text: "zebra"},
		{Ref: model.OccurrenceRef{TaskID: "a", Day: "2025-01-06"}, Text: "Apple", Completed: true, CompletedAt: &done},
		{Ref: model.OccurrenceRef{TaskID: "b", Day: "2025-01-06"}, Text: "banana"},
	}
	Sort(instances)

	got := make([]string, 0, len(instances))
	for _, inst := range instances {
		got = append(got, inst.Text)
	}
	want := []string{"banana", "zebra", "Apple"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}
