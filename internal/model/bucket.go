package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidBucket = errors.New("model: invalid bucket")

// bankLabel is the stored label for the unscheduled bucket.
const bankLabel = "TASK_BANK"

type BucketKind int

const (
	BucketDay BucketKind = iota
	BucketBank
)

// Bucket is where a task lives in the week view: one of the seven weekday
// columns, or the unscheduled task bank. The bank is a distinct variant
// rather than an eighth weekday so bank items can never take the
// recurrence-expansion path.
type Bucket struct {
	Kind BucketKind
	Day  time.Weekday
}

// DayBucket returns the bucket for a weekday column.
func DayBucket(d time.Weekday) Bucket {
	return Bucket{Kind: BucketDay, Day: d}
}

// BankBucket returns the unscheduled bucket.
func BankBucket() Bucket {
	return Bucket{Kind: BucketBank}
}

func (b Bucket) IsBank() bool {
	return b.Kind == BucketBank
}

// String renders the stored label: SUNDAY..SATURDAY or TASK_BANK.
func (b Bucket) String() string {
	if b.Kind == BucketBank {
		return bankLabel
	}
	return strings.ToUpper(b.Day.String())
}

// MarshalJSON writes the bucket as its stored label.
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON reads a stored label.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseBucket(label)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBucket reads a stored label back into a Bucket.
func ParseBucket(s string) (Bucket, error) {
	label := strings.ToUpper(strings.TrimSpace(s))
	if label == bankLabel {
		return BankBucket(), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if label == strings.ToUpper(d.String()) {
			return DayBucket(d), nil
		}
	}
	return Bucket{}, fmt.Errorf("%w: %q", ErrInvalidBucket, s)
}
