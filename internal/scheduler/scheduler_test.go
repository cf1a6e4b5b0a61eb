package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Iron-Ham/tomate/internal/config"
	"github.com/Iron-Ham/tomate/internal/errors"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(calls *[]recordedCall, out string, err error) Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}
}

func foundAt(path string) func(string) (string, error) {
	return func(string) (string, error) { return path, nil }
}

func TestSystemdScheduler_Args(t *testing.T) {
	tests := []struct {
		name       string
		configFile string
		env        map[string]string
		delay      time.Duration
		want       []string
	}{
		{
			name:  "whole minutes",
			delay: 25 * time.Minute,
			want: []string{
				"--user", "--on-active=1500s", "--timer-property=AccuracySec=100ms",
				"/usr/bin/tomate", "timer", "check",
			},
		},
		{
			name:  "fraction rounds up",
			delay: 1500*time.Second + 200*time.Millisecond,
			want: []string{
				"--user", "--on-active=1501s", "--timer-property=AccuracySec=100ms",
				"/usr/bin/tomate", "timer", "check",
			},
		},
		{
			name:  "past due clamps to one second",
			delay: -time.Minute,
			want: []string{
				"--user", "--on-active=1s", "--timer-property=AccuracySec=100ms",
				"/usr/bin/tomate", "timer", "check",
			},
		},
		{
			name:  "environment before the command",
			env:   map[string]string{"TOMATE_PATHS_STATE_FILE": "/s/current.toml", "TOMATE_HISTORY_BACKEND": "sqlite"},
			delay: time.Minute,
			want: []string{
				"--user", "--on-active=60s", "--timer-property=AccuracySec=100ms",
				"--setenv=TOMATE_HISTORY_BACKEND=sqlite", "--setenv=TOMATE_PATHS_STATE_FILE=/s/current.toml",
				"/usr/bin/tomate", "timer", "check",
			},
		},
		{
			name:       "config passthrough",
			configFile: "/home/u/tomate.yaml",
			delay:      5 * time.Minute,
			want: []string{
				"--user", "--on-active=300s", "--timer-property=AccuracySec=100ms",
				"/usr/bin/tomate", "--config", "/home/u/tomate.yaml", "timer", "check",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSystemdScheduler("/usr/bin/tomate", tt.configFile, 100*time.Millisecond, WithEnv(tt.env))
			if got := s.Args(tt.delay); !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSystemdScheduler_Schedule(t *testing.T) {
	now := time.Date(2024, 3, 27, 12, 0, 0, 0, time.UTC)
	var calls []recordedCall

	s := NewSystemdScheduler("/usr/bin/tomate", "", 100*time.Millisecond,
		WithRunner(fakeRunner(&calls, "Running timer as unit: run-u1.timer", nil)),
		WithLookPath(foundAt("/usr/bin/systemd-run")),
		WithClock(func() time.Time { return now }),
	)

	if err := s.Schedule(context.Background(), now.Add(25*time.Minute)); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(calls))
	}
	if calls[0].name != "/usr/bin/systemd-run" {
		t.Errorf("command = %q, want /usr/bin/systemd-run", calls[0].name)
	}
	if !slices.Contains(calls[0].args, "--on-active=1500s") {
		t.Errorf("args = %q, want --on-active=1500s", calls[0].args)
	}
}

func TestSystemdScheduler_Unavailable(t *testing.T) {
	var calls []recordedCall
	s := NewSystemdScheduler("/usr/bin/tomate", "", 0,
		WithRunner(fakeRunner(&calls, "", nil)),
		WithLookPath(func(string) (string, error) { return "", fmt.Errorf("not found") }),
	)

	err := s.Schedule(context.Background(), time.Now().Add(time.Minute))
	if !errors.Is(err, errors.ErrSchedulerUnavailable) {
		t.Fatalf("Schedule() error = %v, want ErrSchedulerUnavailable", err)
	}
	if !errors.IsWarning(err) {
		t.Error("scheduler errors should be warnings")
	}
	if len(calls) != 0 {
		t.Error("runner should not be called when systemd-run is missing")
	}
}

func TestSystemdScheduler_CommandFails(t *testing.T) {
	var calls []recordedCall
	s := NewSystemdScheduler("/usr/bin/tomate", "", 0,
		WithRunner(fakeRunner(&calls, "Failed to connect to bus: No medium found\n", fmt.Errorf("exit status 1"))),
		WithLookPath(foundAt("/usr/bin/systemd-run")),
	)

	err := s.Schedule(context.Background(), time.Now().Add(time.Minute))
	var schedErr *errors.SchedulerError
	if !errors.As(err, &schedErr) {
		t.Fatalf("Schedule() error = %v, want *SchedulerError", err)
	}
	if schedErr.Output != "Failed to connect to bus: No medium found" {
		t.Errorf("Output = %q", schedErr.Output)
	}
}

func TestNopScheduler(t *testing.T) {
	if err := (NopScheduler{}).Schedule(context.Background(), time.Now()); err != nil {
		t.Errorf("Schedule() = %v, want nil", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend  string
		wantType string
		wantErr  bool
	}{
		{config.SchedulerBackendNone, "nop", false},
		{config.SchedulerBackendSystemd, "systemd", false},
		{"cron", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := New(config.SchedulerConfig{Backend: tt.backend}, "", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			switch tt.wantType {
			case "nop":
				if _, ok := s.(NopScheduler); !ok {
					t.Errorf("New() = %T, want NopScheduler", s)
				}
			case "systemd":
				if _, ok := s.(*SystemdScheduler); !ok {
					t.Errorf("New() = %T, want *SystemdScheduler", s)
				}
			}
		})
	}
}

func TestNew_RelativeConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(config.SchedulerConfig{Backend: config.SchedulerBackendSystemd, Accuracy: 100 * time.Millisecond},
		"tomate.yaml", nil, WithEnv(map[string]string{"TOMATE_PATHS_STATE_FILE": "/s/current.toml"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	systemd, ok := s.(*SystemdScheduler)
	if !ok {
		t.Fatalf("New() = %T, want *SystemdScheduler", s)
	}

	want := filepath.Join(wd, "tomate.yaml")
	if systemd.ConfigFile != want {
		t.Errorf("ConfigFile = %q, want %q", systemd.ConfigFile, want)
	}
	args := systemd.Args(time.Minute)
	i := slices.Index(args, "--config")
	if i < 0 || i+1 >= len(args) || args[i+1] != want {
		t.Errorf("Args() = %q, want --config %s", args, want)
	}
	if !slices.Contains(args, "--setenv=TOMATE_PATHS_STATE_FILE=/s/current.toml") {
		t.Errorf("Args() = %q, want the state file in the unit environment", args)
	}
}
