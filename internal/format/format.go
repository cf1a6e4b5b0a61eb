// Package format renders durations and session status lines.
package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/tomate/internal/session"
)

// Kitchen formats d like a kitchen timer: mm:ss, or hh:mm:ss from one hour
// up. Negative durations render as zero; fractions of a second are dropped.
func Kitchen(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Human formats d compactly, e.g. "22m30s" or "1h5m". Zero renders as "0s".
func Human(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	if total == 0 {
		return "0s"
	}

	var sb strings.Builder
	if h := total / 3600; h > 0 {
		fmt.Fprintf(&sb, "%dh", h)
	}
	if m := (total % 3600) / 60; m > 0 {
		fmt.Fprintf(&sb, "%dm", m)
	}
	if s := total % 60; s > 0 {
		fmt.Fprintf(&sb, "%ds", s)
	}
	return sb.String()
}

// maxMinutes is the largest bare number of minutes a time.Duration can hold.
const maxMinutes = math.MaxInt64 / int64(time.Minute)

// ParseDuration accepts Go duration syntax ("25m", "1h30m", "22m30s") or a
// bare number of minutes ("25"). The result is always positive.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > maxMinutes || n < -maxMinutes {
			return 0, fmt.Errorf("duration %q is out of range", s)
		}
		d = time.Duration(n) * time.Minute
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("duration %q is out of range", s)
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q (examples: 25m, 1h30m, 22m30s)", s)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

// Tokens documents the placeholders understood by Status.
const Tokens = `  %d  description
  %t  tags, comma-separated
  %k  session kind
  %r  remaining time as mm:ss (hh:mm:ss above an hour)
  %R  remaining time in seconds
  %s  start time, RFC 3339
  %S  start time, Unix timestamp
  %e  end time, RFC 3339
  %E  end time, Unix timestamp
  %%  a literal percent sign`

// Status expands the placeholders in layout for rec at now. Unknown
// placeholders are copied through unchanged.
func Status(layout string, rec *session.Record, now time.Time) string {
	var sb strings.Builder
	for i := 0; i < len(layout); i++ {
		c := layout[i]
		if c != '%' || i == len(layout)-1 {
			sb.WriteByte(c)
			continue
		}

		i++
		switch layout[i] {
		case 'd':
			sb.WriteString(rec.Description)
		case 't':
			sb.WriteString(strings.Join(rec.Tags, ","))
		case 'k':
			sb.WriteString(string(rec.Kind))
		case 'r':
			sb.WriteString(Kitchen(rec.Remaining(now)))
		case 'R':
			sb.WriteString(strconv.FormatInt(int64(rec.Remaining(now)/time.Second), 10))
		case 's':
			sb.WriteString(rec.StartedAt.Format(time.RFC3339))
		case 'S':
			sb.WriteString(strconv.FormatInt(rec.StartedAt.Unix(), 10))
		case 'e':
			sb.WriteString(rec.EndsAt().Format(time.RFC3339))
		case 'E':
			sb.WriteString(strconv.FormatInt(rec.EndsAt().Unix(), 10))
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(layout[i])
		}
	}
	return sb.String()
}
