package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Iron-Ham/tomate/internal/format"
	"github.com/Iron-Ham/tomate/internal/history"
	"github.com/Iron-Ham/tomate/internal/tui/styles"
	"github.com/Iron-Ham/tomate/internal/util"
)

// HistoryDateLayout is how start times appear in the history table.
const HistoryDateLayout = "02 Jan 15:04"

const (
	maxTagsWidth        = 24
	maxDescriptionWidth = 48
)

// RenderHistory renders entries as a borderless table with the columns
// Date Started, Duration, Tags and Description.
func RenderHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return "No Pomodoros in history yet\n"
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.StartedAt.Format(HistoryDateLayout),
			format.Human(e.Duration()),
			util.TruncateANSI(styles.Tag.Render(util.OrDash(strings.Join(e.Tags, ","))), maxTagsWidth),
			util.Truncate(util.OrDash(e.Description), maxDescriptionWidth),
		})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers("Date Started", "Duration", "Tags", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			switch col {
			case 0:
				return styles.TableDate
			case 1:
				return styles.TableDuration
			default:
				return styles.TableCell
			}
		})

	return t.Render() + "\n"
}
