package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTextLen  = 500
	MaxURLLen   = 2000
	MaxNotesLen = 2000
)

var (
	ErrTextTooLong       = errors.New("model: task text too long")
	ErrURLTooLong        = errors.New("model: task url too long")
	ErrNotesTooLong      = errors.New("model: task notes too long")
	ErrInvalidURL        = errors.New("model: task url must be http or https")
	ErrRecurringSubItem  = errors.New("model: sub-item cannot be recurring")
	ErrRecurringBankItem = errors.New("model: bank item cannot be recurring")
)

// Task is the persisted template record: either a standalone one-time task,
// the head of a recurring series, or (when ParentID is set) a sub-item of
// another task.
//
// For a recurring task, Anchor is the first occurrence date and the Done
// fields on the record itself are meaningless; per-date completion lives in
// exception records keyed by (task id, day). The same holds for sub-items
// of a recurring parent.
type Task struct {
	ID        string     `json:"id"`
	Owner     string     `json:"owner"`
	Text      string     `json:"text"`
	Done      bool       `json:"done"`
	DoneAt    *time.Time `json:"done_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Anchor    time.Time  `json:"anchor"`
	Bucket    Bucket     `json:"bucket"`
	Recurring bool       `json:"recurring"`
	Frequency Frequency  `json:"frequency,omitempty"`
	URL       string     `json:"url,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	ParentID  string     `json:"parent_id,omitempty"`
}

// IsSubItem reports whether the task belongs to a parent task.
func (t Task) IsSubItem() bool {
	return t.ParentID != ""
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Owner) == "" {
		return errors.New("model: task owner is required")
	}
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("model: task text is required")
	}
	if utf8.RuneCountInString(t.Text) > MaxTextLen {
		return fmt.Errorf("%w: %d runes", ErrTextTooLong, utf8.RuneCountInString(t.Text))
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if err := ValidateURL(t.URL); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Notes) > MaxNotesLen {
		return fmt.Errorf("%w: %d runes", ErrNotesTooLong, utf8.RuneCountInString(t.Notes))
	}
	if t.Recurring {
		if t.IsSubItem() {
			return ErrRecurringSubItem
		}
		if t.Bucket.IsBank() {
			return ErrRecurringBankItem
		}
		if !t.Frequency.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.Frequency)
		}
		if t.Anchor.IsZero() {
			return errors.New("model: recurring task anchor is required")
		}
		return nil
	}
	if !t.Bucket.IsBank() && t.Anchor.IsZero() {
		return errors.New("model: scheduled task anchor is required")
	}
	if t.Done && t.DoneAt == nil {
		return errors.New("model: done_at is required when task is done")
	}
	if !t.Done && t.DoneAt != nil {
		return errors.New("model: done_at must be nil when task is not done")
	}
	return nil
}

// ValidateURL accepts an empty URL or an absolute http/https URL within the
// length limit. Anything else is rejected before it reaches the store.
func ValidateURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxURLLen {
		return fmt.Errorf("%w: %d bytes", ErrURLTooLong, len(raw))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}
