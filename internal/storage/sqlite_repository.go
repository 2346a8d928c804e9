package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"weekplanner/internal/dates"
	"weekplanner/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

const taskColumns = `id, owner, text, done, done_at, created_at, anchor, bucket, recurring, frequency, url, notes, parent_id`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// DB exposes the underlying handle for migrations.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Owner, in.Text, boolInt(in.Done), nullTime(in.DoneAt), mustTime(in.CreatedAt),
		nullDay(in.Anchor), in.Bucket.String(), boolInt(in.Recurring), string(in.Frequency),
		in.URL, in.Notes, nullString(in.ParentID),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET text = ?, done = ?, done_at = ?, anchor = ?, bucket = ?, recurring = ?, frequency = ?, url = ?, notes = ?, parent_id = ?
		WHERE id = ?`,
		in.Text, boolInt(in.Done), nullTime(in.DoneAt), nullDay(in.Anchor), in.Bucket.String(),
		boolInt(in.Recurring), string(in.Frequency), in.URL, in.Notes, nullString(in.ParentID), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.Owner != "" {
		clauses = append(clauses, "owner = ?")
		args = append(args, filter.Owner)
	}
	if filter.ParentID != "" {
		clauses = append(clauses, "parent_id = ?")
		args = append(args, filter.ParentID)
	}
	if filter.Bucket != "" {
		clauses = append(clauses, "bucket = ?")
		args = append(args, filter.Bucket)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	return r.queryTasks(ctx, query, args...)
}

func (r *SQLiteRepository) ListWeekTasks(ctx context.Context, owner string, start, end dates.DayKey) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE owner = ? AND parent_id IS NULL
		  AND (bucket = ?
		       OR (recurring = 1 AND anchor <= ?)
		       OR (recurring = 0 AND anchor >= ? AND anchor <= ?))
		ORDER BY created_at ASC`
	return r.queryTasks(ctx, query, owner, model.BankBucket().String(), string(end), string(start), string(end))
}

func (r *SQLiteRepository) ListSubItems(ctx context.Context, parentIDs []string) ([]model.Task, error) {
	if len(parentIDs) == 0 {
		return []model.Task{}, nil
	}
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE parent_id IN (` + placeholders(len(parentIDs)) + `)
		ORDER BY created_at ASC`
	return r.queryTasks(ctx, query, stringArgs(parentIDs)...)
}

func (r *SQLiteRepository) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			// One corrupt row must not blank the whole result set.
			log.Printf("storage: skipping unreadable task row: %v", scanErr)
			continue
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertTaskCompletion(ctx context.Context, owner, taskID string, day dates.DayKey, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_completions (id, owner, task_id, day, done_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (task_id, day) DO NOTHING`,
		uuid.NewString(), owner, taskID, string(day), mustTime(at),
	)
	return err
}

func (r *SQLiteRepository) DeleteTaskCompletion(ctx context.Context, taskID string, day dates.DayKey) error {
	// Absent record is fine: un-completing never-touched occurrences is a no-op.
	_, err := r.db.ExecContext(ctx, `DELETE FROM task_completions WHERE task_id = ? AND day = ?`, taskID, string(day))
	return err
}

func (r *SQLiteRepository) ListTaskCompletions(ctx context.Context, taskIDs []string, from, to dates.DayKey) ([]Completion, error) {
	if len(taskIDs) == 0 {
		return []Completion{}, nil
	}
	query := `SELECT id, owner, task_id, day, done_at FROM task_completions
		WHERE task_id IN (` + placeholders(len(taskIDs)) + `) AND day >= ? AND day <= ?`
	args := stringArgs(taskIDs)
	args = append(args, string(from), string(to))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Completion, 0)
	for rows.Next() {
		var rec Completion
		var day string
		var doneAt string
		if scanErr := rows.Scan(&rec.ID, &rec.Owner, &rec.TaskID, &day, &doneAt); scanErr != nil {
			return nil, scanErr
		}
		rec.Day = dates.DayKey(day)
		at, parseErr := time.Parse(sqliteTimeLayout, doneAt)
		if parseErr != nil {
			return nil, parseErr
		}
		rec.DoneAt = at
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertSubItemCompletion(ctx context.Context, owner, subItemID, parentTaskID string, day dates.DayKey, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subitem_completions (id, owner, sub_item_id, parent_task_id, day, done_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (sub_item_id, day) DO NOTHING`,
		uuid.NewString(), owner, subItemID, parentTaskID, string(day), mustTime(at),
	)
	return err
}

func (r *SQLiteRepository) DeleteSubItemCompletion(ctx context.Context, subItemID string, day dates.DayKey) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subitem_completions WHERE sub_item_id = ? AND day = ?`, subItemID, string(day))
	return err
}

func (r *SQLiteRepository) ListSubItemCompletions(ctx context.Context, subItemIDs []string, from, to dates.DayKey) ([]SubItemCompletion, error) {
	if len(subItemIDs) == 0 {
		return []SubItemCompletion{}, nil
	}
	query := `SELECT id, owner, sub_item_id, parent_task_id, day, done_at FROM subitem_completions
		WHERE sub_item_id IN (` + placeholders(len(subItemIDs)) + `) AND day >= ? AND day <= ?`
	args := stringArgs(subItemIDs)
	args = append(args, string(from), string(to))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SubItemCompletion, 0)
	for rows.Next() {
		var rec SubItemCompletion
		var day string
		var doneAt string
		if scanErr := rows.Scan(&rec.ID, &rec.Owner, &rec.SubItemID, &rec.ParentTaskID, &day, &doneAt); scanErr != nil {
			return nil, scanErr
		}
		rec.Day = dates.DayKey(day)
		at, parseErr := time.Parse(sqliteTimeLayout, doneAt)
		if parseErr != nil {
			return nil, parseErr
		}
		rec.DoneAt = at
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCompletionsForTask(ctx context.Context, taskID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_completions WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM subitem_completions WHERE parent_task_id = ?`, taskID)
	return err
}

func (r *SQLiteRepository) PruneCompletions(ctx context.Context, before dates.DayKey) (int64, error) {
	var total int64
	for _, table := range []string{"task_completions", "subitem_completions"} {
		res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE day < ?`, string(before))
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// row codec

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var (
		out       model.Task
		done      int
		doneAt    sql.NullString
		created   string
		anchor    sql.NullString
		bucket    string
		recurring int
		frequency string
		parent    sql.NullString
	)
	if err := s.Scan(&out.ID, &out.Owner, &out.Text, &done, &doneAt, &created, &anchor, &bucket, &recurring, &frequency, &out.URL, &out.Notes, &parent); err != nil {
		return model.Task{}, err
	}

	createdAt, err := time.Parse(sqliteTimeLayout, created)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s created_at: %w", out.ID, err)
	}
	out.CreatedAt = createdAt

	doneAtTime, err := parseNullableTime(doneAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s done_at: %w", out.ID, err)
	}
	out.Done = done == 1
	out.DoneAt = doneAtTime

	if anchor.Valid && anchor.String != "" {
		key, keyErr := dates.ParseKey(anchor.String)
		if keyErr != nil {
			return model.Task{}, fmt.Errorf("task %s anchor: %w", out.ID, keyErr)
		}
		out.Anchor = key.Time(time.Local)
	}

	b, err := model.ParseBucket(bucket)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", out.ID, err)
	}
	out.Bucket = b

	out.Recurring = recurring == 1
	out.Frequency = model.Frequency(frequency)
	if parent.Valid {
		out.ParentID = parent.String
	}
	return out, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func nullDay(v time.Time) any {
	if v.IsZero() {
		return nil
	}
	return string(dates.Key(v))
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func applyPagination(args *[]any, limit, offset int) string {
	clause := ""
	if limit > 0 {
		clause += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
			clause += " LIMIT -1"
		}
		clause += " OFFSET ?"
		*args = append(*args, offset)
	}
	return clause
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
