package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTask() Task {
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	return Task{
		ID:        "task-1",
		Owner:     "local",
		Text:      "Water the plants",
		CreatedAt: now,
		Anchor:    time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		Bucket:    DayBucket(time.Monday),
	}
}

func TestTaskValidateSuccess(t *testing.T) {
	task := validTask()
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateBankItemWithoutAnchor(t *testing.T) {
	task := validTask()
	task.Bucket = BankBucket()
	task.Anchor = time.Time{}
	if err := task.Validate(); err != nil {
		t.Fatalf("bank item should not require an anchor: %v", err)
	}
}

func TestTaskValidateTextLimits(t *testing.T) {
	task := validTask()
	task.Text = ""
	if err := task.Validate(); err == nil {
		t.Fatal("empty text should be rejected")
	}

	task = validTask()
	task.Text = strings.Repeat("x", MaxTextLen+1)
	if err := task.Validate(); !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got: %v", err)
	}

	task.Text = strings.Repeat("x", MaxTextLen)
	if err := task.Validate(); err != nil {
		t.Fatalf("text at the limit should pass: %v", err)
	}
}

func TestTaskValidateURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"empty", "", true},
		{"https", "https://example.com/doc", true},
		{"http", "http://example.com", true},
		{"javascript scheme", "javascript:alert(1)", false},
		{"ftp scheme", "ftp://example.com/file", false},
		{"relative", "/just/a/path", false},
		{"too long", "https://example.com/" + strings.Repeat("a", MaxURLLen), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := validTask()
			task.URL = tc.url
			err := task.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestTaskValidateNotesLimit(t *testing.T) {
	task := validTask()
	task.Notes = strings.Repeat("n", MaxNotesLen+1)
	if err := task.Validate(); !errors.Is(err, ErrNotesTooLong) {
		t.Fatalf("expected ErrNotesTooLong, got: %v", err)
	}
}

func TestTaskValidateDonePairing(t *testing.T) {
	task := validTask()
	task.Done = true
	if err := task.Validate(); err == nil {
		t.Fatal("done without done_at should be rejected")
	}

	task = validTask()
	at := task.CreatedAt
	task.DoneAt = &at
	if err := task.Validate(); err == nil {
		t.Fatal("done_at without done should be rejected")
	}
}

func TestTaskValidateRecurring(t *testing.T) {
	task := validTask()
	task.Recurring = true
	task.Frequency = FreqWeekly
	if err := task.Validate(); err != nil {
		t.Fatalf("recurring task should be valid: %v", err)
	}

	task.Frequency = Frequency("hourly")
	if err := task.Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got: %v", err)
	}

	task.Frequency = FreqWeekly
	task.ParentID = "parent-1"
	if err := task.Validate(); !errors.Is(err, ErrRecurringSubItem) {
		t.Fatalf("expected ErrRecurringSubItem, got: %v", err)
	}

	task.ParentID = ""
	task.Bucket = BankBucket()
	if err := task.Validate(); !errors.Is(err, ErrRecurringBankItem) {
		t.Fatalf("expected ErrRecurringBankItem, got: %v", err)
	}
}

func TestTaskValidateRecurringIgnoresDoneFields(t *testing.T) {
	// The done flag on a recurring template is vestigial; completion lives
	// in exception records, so a stale flag must not make the row invalid.
	task := validTask()
	task.Recurring = true
	task.Frequency = FreqDaily
	task.Done = true
	if err := task.Validate(); err != nil {
		t.Fatalf("recurring task with stale done flag should pass: %v", err)
	}
}
