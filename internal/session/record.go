// Package session holds the single current session: its record, the file it
// lives in, and the cross-process lock guarding that file.
package session

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind identifies what a session is for.
type Kind string

const (
	KindPomodoro   Kind = "pomodoro"
	KindShortBreak Kind = "shortbreak"
	KindLongBreak  Kind = "longbreak"
)

// Kinds returns every valid kind.
func Kinds() []Kind {
	return []Kind{KindPomodoro, KindShortBreak, KindLongBreak}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown session kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPomodoro, KindShortBreak, KindLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether k is a short or long break.
func (k Kind) IsBreak() bool {
	return k == KindShortBreak || k == KindLongBreak
}

var titleCaser = cases.Title(language.English)

// Label returns a human-readable name, e.g. "Short Break".
func (k Kind) Label() string {
	switch k {
	case KindShortBreak:
		return titleCaser.String("short break")
	case KindLongBreak:
		return titleCaser.String("long break")
	default:
		return titleCaser.String(string(k))
	}
}

// Record is the persisted state of the current session.
//
// Kind, StartedAt and Duration never change after creation. Notified flips
// from false to true exactly once, when the end hook has fired.
type Record struct {
	ID          string
	Kind        Kind
	Description string
	Tags        []string
	StartedAt   time.Time
	Duration    time.Duration
	Notified    bool
}

// EndsAt returns the instant the session reaches its target duration.
func (r *Record) EndsAt() time.Time {
	return r.StartedAt.Add(r.Duration)
}

// Elapsed returns the time since the session started. A start time in the
// future (clock skew) yields zero.
func (r *Record) Elapsed(now time.Time) time.Duration {
	elapsed := now.Sub(r.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Remaining returns the time left until the target duration, never negative.
func (r *Record) Remaining(now time.Time) time.Duration {
	remaining := r.Duration - r.Elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the target duration has been reached.
func (r *Record) Expired(now time.Time) bool {
	return r.Elapsed(now) >= r.Duration
}

// Validate checks the invariants a loaded record must satisfy.
func (r *Record) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown session kind %q", r.Kind)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", r.Duration)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("missing start time")
	}
	return nil
}

// NormalizeTags trims each tag, drops empty ones and removes duplicates,
// keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// recordFile is the on-disk TOML layout of a Record.
type recordFile struct {
	ID          string    `toml:"id"`
	Kind        string    `toml:"kind"`
	StartedAt   time.Time `toml:"started_at"`
	Duration    int64     `toml:"duration"`
	Description string    `toml:"description,omitempty"`
	Tags        []string  `toml:"tags"`
	Notified    bool      `toml:"notified"`
}

func (r *Record) toFile() recordFile {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return recordFile{
		ID:          r.ID,
		Kind:        string(r.Kind),
		StartedAt:   r.StartedAt.Truncate(time.Second),
		Duration:    int64(r.Duration / time.Second),
		Description: r.Description,
		Tags:        tags,
		Notified:    r.Notified,
	}
}

func (f recordFile) toRecord() (*Record, error) {
	kind, err := ParseKind(f.Kind)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:          f.ID,
		Kind:        kind,
		Description: f.Description,
		Tags:        f.Tags,
		StartedAt:   f.StartedAt,
		Duration:    time.Duration(f.Duration) * time.Second,
		Notified:    f.Notified,
	}, nil
}
