package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Iron-Ham/tomate/internal/format"
	"github.com/Iron-Ham/tomate/internal/session"
	"github.com/Iron-Ham/tomate/internal/tui/styles"
)

// RenderStatus renders the multi-line summary printed by "tomate status".
func RenderStatus(rec *session.Record, now time.Time) string {
	var sb strings.Builder

	heading := "Current " + rec.Kind.Label()
	if rec.Kind.IsBreak() {
		heading = "Taking a " + strings.ToLower(rec.Kind.Label())
	}
	sb.WriteString(styles.KindStyle(rec.Kind).Render(heading))
	if rec.Description != "" {
		sb.WriteString(": " + styles.Description.Render(rec.Description))
	}
	sb.WriteString("\n")

	line := func(label, value string) {
		fmt.Fprintf(&sb, "%s %s\n", styles.Label.Render(label+":"), value)
	}
	line("Status", styles.StateBadge(rec.Expired(now)))
	line("Started", fmt.Sprintf("%s (%s)",
		rec.StartedAt.Format("15:04"), humanize.RelTime(rec.StartedAt, now, "ago", "from now")))
	line("Duration", styles.DurationValue.Render(format.Human(rec.Duration)))
	if !rec.Expired(now) {
		line("Time remaining", styles.DurationValue.Render(format.Kitchen(rec.Remaining(now))))
	}
	if len(rec.Tags) > 0 {
		tags := make([]string, len(rec.Tags))
		for i, tag := range rec.Tags {
			tags[i] = styles.Tag.Render(tag)
		}
		line("Tags", strings.Join(tags, ", "))
	}

	sb.WriteString("\n")
	if rec.Kind.IsBreak() {
		sb.WriteString(styles.Hint.Render(`(use "tomate finish" to end this break)`) + "\n")
	} else {
		sb.WriteString(styles.Hint.Render(`(use "tomate finish" to archive this Pomodoro)`) + "\n")
		sb.WriteString(styles.Hint.Render(`(use "tomate clear" to delete this Pomodoro)`) + "\n")
	}
	return sb.String()
}

// RenderIdle renders the message shown when there is no session.
func RenderIdle() string {
	return "No current session\n\n" +
		styles.Hint.Render(`(use "tomate start" to start a Pomodoro)`) + "\n" +
		styles.Hint.Render(`(use "tomate break" to take a break)`) + "\n"
}
