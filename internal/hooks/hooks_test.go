package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/session"
)

func writeHook(t *testing.T, dir string, event Event, script string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, string(event))
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), perm); err != nil {
		t.Fatalf("failed to write hook: %v", err)
	}
}

func testContext() Context {
	return Context{
		Kind:        session.KindPomodoro,
		Description: "Write report",
		Tags:        []string{"work", "writing"},
		StartedAt:   time.Date(2024, 3, 27, 12, 0, 0, 0, time.UTC),
		Duration:    25 * time.Minute,
	}
}

func TestEventFor(t *testing.T) {
	tests := []struct {
		kind  session.Kind
		phase Phase
		want  Event
	}{
		{session.KindPomodoro, PhaseStart, PomodoroStart},
		{session.KindPomodoro, PhaseEnd, PomodoroEnd},
		{session.KindShortBreak, PhaseStart, ShortBreakStart},
		{session.KindShortBreak, PhaseEnd, ShortBreakEnd},
		{session.KindLongBreak, PhaseStart, LongBreakStart},
		{session.KindLongBreak, PhaseEnd, LongBreakEnd},
	}
	for _, tt := range tests {
		if got := EventFor(tt.kind, tt.phase); got != tt.want {
			t.Errorf("EventFor(%s, %s) = %q, want %q", tt.kind, tt.phase, got, tt.want)
		}
	}
	if len(Events()) != 6 {
		t.Errorf("Events() returned %d events, want 6", len(Events()))
	}
}

func TestContext_Env(t *testing.T) {
	env := testContext().Env(PomodoroEnd)

	want := []string{
		"TOMATE_EVENT=pomodoro-end",
		"TOMATE_KIND=pomodoro",
		"TOMATE_TAGS=work,writing",
		"TOMATE_DESCRIPTION=Write report",
		"TOMATE_STARTED_AT=2024-03-27T12:00:00Z",
		"TOMATE_STARTED_AT_UNIX=1711540800",
		"TOMATE_DURATION=1500",
		"TOMATE_ENDS_AT=2024-03-27T12:25:00Z",
	}
	if len(env) != len(want) {
		t.Fatalf("Env() = %v, want %v", env, want)
	}
	for i := range want {
		if env[i] != want[i] {
			t.Errorf("Env()[%d] = %q, want %q", i, env[i], want[i])
		}
	}
}

func TestDispatcher_MissingHook(t *testing.T) {
	d := NewDispatcher(t.TempDir(), nil)
	if err := d.Run(context.Background(), PomodoroStart, testContext()); err != nil {
		t.Errorf("Run() with no hook = %v, want nil", err)
	}
}

func TestDispatcher_MissingDirectory(t *testing.T) {
	d := NewDispatcher(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err := d.Run(context.Background(), PomodoroEnd, testContext()); err != nil {
		t.Errorf("Run() with no hooks dir = %v, want nil", err)
	}
}

func TestDispatcher_RunsHookWithEnvironment(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	writeHook(t, dir, PomodoroEnd, `env | grep '^TOMATE_' | sort > "`+out+`"`, 0755)

	d := NewDispatcher(dir, nil)
	if err := d.Run(context.Background(), PomodoroEnd, testContext()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	got := string(data)
	for _, want := range []string{
		"TOMATE_EVENT=pomodoro-end",
		"TOMATE_KIND=pomodoro",
		"TOMATE_TAGS=work,writing",
		"TOMATE_DESCRIPTION=Write report",
		"TOMATE_DURATION=1500",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("hook environment missing %q:\n%s", want, got)
		}
	}
}

func TestDispatcher_InheritsProcessEnvironment(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	t.Setenv("TOMATE_TEST_MARKER", "present")
	writeHook(t, dir, ShortBreakStart, `echo "$TOMATE_TEST_MARKER" > "`+out+`"`, 0755)

	d := NewDispatcher(dir, nil)
	hc := testContext()
	hc.Kind = session.KindShortBreak
	if err := d.Run(context.Background(), ShortBreakStart, hc); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "present" {
		t.Errorf("hook saw TOMATE_TEST_MARKER=%q, want present", data)
	}
}

func TestDispatcher_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, PomodoroEnd, "echo boom; exit 3", 0755)

	err := NewDispatcher(dir, nil).Run(context.Background(), PomodoroEnd, testContext())
	if !errors.Is(err, errors.ErrHookFailed) {
		t.Fatalf("Run() error = %v, want ErrHookFailed", err)
	}

	var hookErr *errors.HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("error type = %T, want *HookError", err)
	}
	if hookErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", hookErr.ExitCode)
	}
	if !strings.Contains(hookErr.Output, "boom") {
		t.Errorf("Output = %q, want it to contain boom", hookErr.Output)
	}
	if !errors.IsWarning(err) {
		t.Error("hook failures should be warnings")
	}
}

func TestDispatcher_NotExecutable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	writeHook(t, dir, PomodoroStart, `touch "`+out+`"`, 0644)

	err := NewDispatcher(dir, nil).Run(context.Background(), PomodoroStart, testContext())
	if !errors.Is(err, errors.ErrHookNotExecutable) {
		t.Fatalf("Run() error = %v, want ErrHookNotExecutable", err)
	}
	if !errors.IsWarning(err) {
		t.Error("non-executable hooks should be warnings")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("non-executable hook must not run")
	}
}

func TestDispatcher_DirectoryNamedLikeHook(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, string(LongBreakEnd)), 0755); err != nil {
		t.Fatal(err)
	}

	err := NewDispatcher(dir, nil).Run(context.Background(), LongBreakEnd, testContext())
	if !errors.Is(err, errors.ErrHookNotExecutable) {
		t.Errorf("Run() error = %v, want ErrHookNotExecutable", err)
	}
}

func TestDispatcher_OnlyMatchingEventRuns(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	writeHook(t, dir, PomodoroEnd, `touch "`+out+`"`, 0755)

	if err := NewDispatcher(dir, nil).Run(context.Background(), PomodoroStart, testContext()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("pomodoro-end hook should not run for pomodoro-start")
	}
}
