package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/format"
	"github.com/Iron-Ham/tomate/internal/session"
	"github.com/Iron-Ham/tomate/internal/tui"
)

func newStatusCmd(a *app) *cobra.Command {
	var (
		layout   string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Long: `Show the current session. Exits with status 1 when there is none.

--format prints a custom line instead of the summary. Tokens:
` + format.Tokens,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			st, err := rt.manager.Status(cmd.Context())
			if err != nil {
				if !errors.Is(err, errors.ErrNoActiveSession) {
					return err
				}
				if layout == "" {
					fmt.Fprint(cmd.OutOrStdout(), tui.RenderIdle())
				}
				return &silentError{err: err}
			}

			out := cmd.OutOrStdout()
			switch {
			case layout != "":
				fmt.Fprintln(out, format.Status(layout, st.Record, st.Now))
			case progress:
				return a.watch(cmd, rt, st.Record)
			default:
				fmt.Fprint(out, tui.RenderStatus(st.Record, st.Now))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&layout, "format", "f", "", "print the session using a format string, e.g. \"%r %d\"")
	cmd.Flags().BoolVarP(&progress, "progress", "p", false, "show a progress bar until the session ends")
	return cmd
}

// watch shows the live progress bar for rec. When the session runs out
// while watching, the expiry check runs so the end hook fires right away
// instead of waiting for the scheduled timer.
func (a *app) watch(cmd *cobra.Command, rt *runtime, rec *session.Record) error {
	ctx := cmd.Context()
	opts := tui.ProgressOptions{
		Now:    a.now,
		Reload: rt.store.Load,
	}

	watcher, err := tui.NewStateWatcher(rt.store.Path())
	if err != nil {
		rt.logger.Warn("progress view will not follow other commands", "error", err.Error())
	} else {
		defer func() { _ = watcher.Close() }()
		opts.Changes = watcher.Changes()
	}

	reason, err := tui.RunProgress(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), rec, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch reason {
	case tui.ExitExpired:
		result, err := rt.manager.CheckExpiry(ctx)
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), result.Warnings)
		printExpired(out, rec)
	case tui.ExitGone:
		fmt.Fprintln(out, "The session was finished or cleared")
	}
	return nil
}

func printExpired(out io.Writer, rec *session.Record) {
	if rec.Kind.IsBreak() {
		fmt.Fprintln(out, "Break is over")
		return
	}
	fmt.Fprintln(out, `Pomodoro complete! (use "tomate finish" to archive it)`)
}
