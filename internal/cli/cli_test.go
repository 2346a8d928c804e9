package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := Execute("test"); err != nil {
		t.Fatalf("weekplanner %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestAddAndWeekRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plan.db")

	out := runCLI(t, "add", "water", "plants", "--db", db, "--owner", "t", "--bucket", "TASK_BANK")
	if !strings.Contains(out, "added ") {
		t.Fatalf("add output: %q", out)
	}

	out = runCLI(t, "week", "--db", db, "--owner", "t")
	if !strings.Contains(out, "water plants") {
		t.Fatalf("week output missing task: %q", out)
	}
	if !strings.Contains(out, "TASK BANK") {
		t.Fatalf("week output missing bank panel: %q", out)
	}
}

func TestMigrateDown(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plan.db")

	out := runCLI(t, "migrate", "up", "--db", db)
	if !strings.Contains(out, "migrate up: ok") {
		t.Fatalf("migrate output: %q", out)
	}
	out = runCLI(t, "migrate", "down", "--db", db)
	if !strings.Contains(out, "migrate down: ok") {
		t.Fatalf("migrate output: %q", out)
	}
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plan.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"migrate", "sideways", "--db", db})
	if err := Execute("test"); err == nil {
		t.Fatal("migrate sideways succeeded")
	}
}
