// Package tui renders tomate's terminal views: the live progress bar, the
// status summary and the history table.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/tomate/internal/format"
	"github.com/Iron-Ham/tomate/internal/session"
	"github.com/Iron-Ham/tomate/internal/tui/styles"
)

// ExitReason says why the progress view stopped.
type ExitReason int

const (
	// ExitQuit means the user quit the view.
	ExitQuit ExitReason = iota
	// ExitExpired means the session reached its duration.
	ExitExpired
	// ExitGone means the session was finished or cleared elsewhere.
	ExitGone
)

const (
	tickInterval = time.Second
	maxBarWidth  = 60
	// room for "mm:ss " on both sides of the bar
	timeColumns = 14
)

// tickMsg is sent every second to redraw the bar.
type tickMsg time.Time

// stateChangedMsg is sent when the session file changed on disk.
type stateChangedMsg struct{}

// ProgressModel is a bubbletea model showing a session's progress.
type ProgressModel struct {
	rec     *session.Record
	now     func() time.Time
	reload  func() (*session.Record, error)
	changes <-chan struct{}

	bar    progress.Model
	reason ExitReason
	err    error
}

// ProgressOptions configures a ProgressModel.
type ProgressOptions struct {
	// Now supplies the current time; defaults to time.Now.
	Now func() time.Time
	// Reload re-reads the session after a change notification.
	Reload func() (*session.Record, error)
	// Changes, when set, signals changes to the session file.
	Changes <-chan struct{}
}

// NewProgressModel returns a model for rec.
func NewProgressModel(rec *session.Record, opts ProgressOptions) ProgressModel {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	bar := progress.New(
		progress.WithSolidFill(string(styles.KindColor(rec.Kind))),
		progress.WithoutPercentage(),
		progress.WithWidth(40),
	)
	return ProgressModel{
		rec:     rec,
		now:     opts.Now,
		reload:  opts.Reload,
		changes: opts.Changes,
		bar:     bar,
	}
}

// Reason returns why the model stopped.
func (m ProgressModel) Reason() ExitReason {
	return m.reason
}

// Err returns an error encountered while reloading the session.
func (m ProgressModel) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(tick(), waitForChange(m.changes))
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.reason = ExitQuit
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = min(maxBarWidth, max(10, msg.Width-timeColumns))

	case tickMsg:
		if m.rec.Expired(m.now()) {
			m.reason = ExitExpired
			return m, tea.Quit
		}
		return m, tick()

	case stateChangedMsg:
		if m.reload == nil {
			return m, waitForChange(m.changes)
		}
		rec, err := m.reload()
		if err != nil {
			m.err = err
			m.reason = ExitGone
			return m, tea.Quit
		}
		if rec == nil || rec.ID != m.rec.ID {
			m.reason = ExitGone
			return m, tea.Quit
		}
		m.rec = rec
		if rec.Notified {
			m.reason = ExitExpired
			return m, tea.Quit
		}
		return m, waitForChange(m.changes)
	}

	return m, nil
}

// Percent returns the fraction of the session that has elapsed.
func (m ProgressModel) Percent() float64 {
	elapsed := m.rec.Elapsed(m.now())
	if m.rec.Duration <= 0 || elapsed >= m.rec.Duration {
		return 1
	}
	return float64(elapsed) / float64(m.rec.Duration)
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	now := m.now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n",
		styles.Muted.Render(format.Kitchen(m.rec.Elapsed(now))),
		m.bar.ViewAs(m.Percent()),
		styles.DurationValue.Render(format.Kitchen(m.rec.Remaining(now))),
	)
	return sb.String()
}

// RunProgress shows the progress view for rec on w until the session
// expires, disappears, or the user quits. changes may be nil.
func RunProgress(ctx context.Context, w io.Writer, in io.Reader, rec *session.Record, opts ProgressOptions) (ExitReason, error) {
	model := NewProgressModel(rec, opts)
	if rec.Expired(model.now()) {
		return ExitExpired, nil
	}

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(w),
		tea.WithInput(in),
	)
	final, err := p.Run()
	if err != nil {
		return ExitQuit, err
	}
	fm, ok := final.(ProgressModel)
	if !ok {
		return ExitQuit, nil
	}
	return fm.Reason(), fm.Err()
}
