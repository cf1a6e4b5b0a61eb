// Package styles holds the colors and lipgloss styles used by tomate's
// terminal output.
package styles

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/Iron-Ham/tomate/internal/session"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on dark backgrounds
	PrimaryColor   = lipgloss.Color("#F87171") // Tomato red
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BlueColor      = lipgloss.Color("#60A5FA")
	CyanColor      = lipgloss.Color("#22D3EE")
	PurpleColor    = lipgloss.Color("#A78BFA")

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Label = lipgloss.NewStyle().
		Foreground(MutedColor)

	Description = lipgloss.NewStyle().
			Foreground(WarningColor)

	Tag = lipgloss.NewStyle().
		Foreground(BlueColor)

	DurationValue = lipgloss.NewStyle().
			Foreground(CyanColor)

	Hint = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	// Table styles
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Padding(0, 1)

	TableDate = TableCell.
			Foreground(BlueColor)

	TableDuration = TableCell.
			Foreground(CyanColor).
			Align(lipgloss.Right)
)

// KindColor returns the accent color for a session kind.
func KindColor(kind session.Kind) lipgloss.Color {
	switch kind {
	case session.KindPomodoro:
		return PrimaryColor
	case session.KindShortBreak:
		return SecondaryColor
	case session.KindLongBreak:
		return PurpleColor
	default:
		return MutedColor
	}
}

// KindStyle returns a bold style in the kind's accent color.
func KindStyle(kind session.Kind) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(KindColor(kind))
}

// StateBadge renders "Active" or "Done" for a session that has or hasn't
// reached its duration.
func StateBadge(expired bool) string {
	if expired {
		return lipgloss.NewStyle().Bold(true).Foreground(ErrorColor).Render("Done")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(PurpleColor).Render("Active")
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Setup selects the color profile for output written to w. Output that is
// not a terminal, or NO_COLOR, gets plain text.
func Setup(w io.Writer) {
	if !IsTerminal(w) || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(w.(*os.File)).EnvColorProfile())
}
