package model

import (
	"errors"
	"testing"
	"time"
)

func TestBucketRoundTrip(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		label := DayBucket(d).String()
		got, err := ParseBucket(label)
		if err != nil {
			t.Fatalf("parse %q: %v", label, err)
		}
		if got.IsBank() || got.Day != d {
			t.Fatalf("round trip %q got %+v", label, got)
		}
	}

	bank, err := ParseBucket("TASK_BANK")
	if err != nil {
		t.Fatalf("parse bank: %v", err)
	}
	if !bank.IsBank() {
		t.Fatalf("expected bank bucket, got %+v", bank)
	}
	if bank.String() != "TASK_BANK" {
		t.Fatalf("bank label got %q", bank.String())
	}
}

func TestParseBucketNormalizesCase(t *testing.T) {
	got, err := ParseBucket(" monday ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Day != time.Monday {
		t.Fatalf("expected Monday, got %+v", got)
	}
}

func TestParseBucketRejectsUnknown(t *testing.T) {
	if _, err := ParseBucket("SOMEDAY"); !errors.Is(err, ErrInvalidBucket) {
		t.Fatalf("expected ErrInvalidBucket, got %v", err)
	}
}
