package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against db and returns stdout.
func run(t *testing.T, db string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--db", db, "--tz", "UTC", "--log-level", "error"}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func newDB(t *testing.T) string {
	return filepath.Join(t.TempDir(), "officetrack.db")
}

func TestCLI_EnterExitProgress(t *testing.T) {
	db := newDB(t)

	// GIVEN: a two hour visit on March 10, 2025
	run(t, db, "enter", "--at", "2025-03-10T09:00:00Z")
	out := run(t, db, "exit", "--at", "2025-03-10T11:00:00Z")
	assert.Contains(t, out, "Today: 2h 00m")

	// WHEN: progress for March is requested
	out = run(t, db, "progress", "--month", "2025-03")

	// THEN: one of eleven days is done
	assert.Contains(t, out, "2025-03: 1 / 11 days")
	assert.Contains(t, out, "10 day(s) to go.")
}

func TestCLI_ShortVisitIsNotCounted(t *testing.T) {
	db := newDB(t)
	run(t, db, "enter", "--at", "2025-03-10T09:00:00Z")

	out := run(t, db, "exit", "--at", "2025-03-10T09:30:00Z")

	assert.Contains(t, out, "Today: 30m (under 1h 00m, not counted yet)")
	assert.Contains(t, run(t, db, "progress", "--month", "2025-03"), "2025-03: 0 / 11 days")
}

func TestCLI_PTOChangesGoal(t *testing.T) {
	t.Setenv("OFFICETRACK_LOCK_POLICY", "manual")
	db := newDB(t)

	assert.Contains(t, run(t, db, "pto", "add", "2025-03-17"), "Added 2025-03-17.")
	assert.Contains(t, run(t, db, "pto", "add", "2025-03-17"), "2025-03-17 already recorded.")

	out := run(t, db, "goal", "2025-03")
	assert.Contains(t, out, "Goal for 2025-03: 10 days (auto)")
	assert.Contains(t, out, "PTO / sick days:  1")

	assert.Contains(t, run(t, db, "pto", "remove", "2025-03-17"), "Removed 2025-03-17.")
}

func TestCLI_EndedMonthsLockOnNextRun(t *testing.T) {
	db := newDB(t)

	// GIVEN: a PTO day recorded in a month that has long ended
	run(t, db, "pto", "add", "2025-03-17")

	// WHEN: any later command opens the database
	out := run(t, db, "goal", "2025-03")

	// THEN: the month was frozen with the PTO day taken into account
	assert.Contains(t, out, "Goal for 2025-03: 10 days (locked)")
	assert.Contains(t, run(t, db, "goal", "2025-03", "--lock"), "2025-03 already locked at 10 days.")
}

func TestCLI_ExitAfterMidnight(t *testing.T) {
	db := newDB(t)
	run(t, db, "enter", "--at", "2025-03-14T22:30:00Z")

	out := run(t, db, "exit", "--at", "2025-03-15T00:45:00Z")

	assert.Contains(t, out, "Left at 00:45. 2025-03-14: 1h 30m")
	assert.Contains(t, run(t, db, "exit", "--at", "2025-03-15T01:00:00Z"), "No active visit.")
}

func TestCLI_GoalLock(t *testing.T) {
	db := newDB(t)

	assert.Contains(t, run(t, db, "goal", "2025-03", "--lock"), "Locked 2025-03 at 11 days.")

	out := run(t, db, "goal", "2025-03", "--lock")
	assert.Contains(t, out, "2025-03 already locked at 11 days.")
	assert.Contains(t, out, "Goal for 2025-03: 11 days (locked)")
}

func TestCLI_Holidays(t *testing.T) {
	out := run(t, newDB(t), "holidays", "--preset", "nyse", "--year", "2025")

	assert.Contains(t, out, "2025-04-18  Fri  Good Friday")
	assert.NotContains(t, out, "Columbus")
}

func TestCLI_RejectsBadInput(t *testing.T) {
	db := newDB(t)
	for _, args := range [][]string{
		{"enter", "--at", "tomorrow"},
		{"progress", "--month", "2025-13"},
		{"holidays", "--preset", "mars"},
		{"pto", "add", "someday"},
	} {
		cmd := newRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append([]string{"--db", db, "--log-level", "error"}, args...))
		assert.Error(t, cmd.Execute(), args)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m"},
		{12 * time.Minute, "12m"},
		{65 * time.Minute, "1h 05m"},
		{2*time.Hour + 29*time.Second, "2h 00m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}
