package util

import (
	"slices"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		expected string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact width unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"small width returns ellipsis", "hello", 3, "..."},
		{"negative width returns ellipsis", "hello", -5, "..."},
		{"empty string unchanged", "", 10, ""},
		{"wide characters count double", "日本語テスト", 7, "日本..."},
		{"wide characters that fit", "日本語", 6, "日本語"},
		{"mixed ascii and wide", "hello日本語world", 10, "hello日..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxWidth)
			if got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.expected)
			}
		})
	}
}

func TestTruncateANSI(t *testing.T) {
	redStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	tests := []struct {
		name     string
		input    string
		maxWidth int
		check    func(t *testing.T, result string)
	}{
		{
			name:     "plain string truncated",
			input:    "hello world",
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				if result != "hello..." {
					t.Errorf("expected 'hello...', got %q", result)
				}
			},
		},
		{
			name:     "styled string preserved when it fits",
			input:    redStyle.Render("hi"),
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if result != redStyle.Render("hi") {
					t.Errorf("styled string was modified when it shouldn't be")
				}
			},
		},
		{
			name:     "styled string truncated respects width",
			input:    redStyle.Render("hello world"),
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				if width := lipgloss.Width(result); width > 8 {
					t.Errorf("result width %d exceeds maxWidth 8", width)
				}
			},
		},
		{
			name:     "tiny width returns ellipsis",
			input:    redStyle.Render("hello"),
			maxWidth: 2,
			check: func(t *testing.T, result string) {
				if result != "..." {
					t.Errorf("expected '...', got %q", result)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, TruncateANSI(tt.input, tt.maxWidth))
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"work", []string{"work"}},
		{"work, deep ,", []string{"work", "deep"}},
		{" , ,", nil},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("SplitList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOrDash(t *testing.T) {
	if got := OrDash(""); got != "-" {
		t.Errorf("OrDash(\"\") = %q", got)
	}
	if got := OrDash("  "); got != "-" {
		t.Errorf("OrDash(spaces) = %q", got)
	}
	if got := OrDash("x"); got != "x" {
		t.Errorf("OrDash(x) = %q", got)
	}
}
