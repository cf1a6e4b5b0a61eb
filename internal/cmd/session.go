package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/format"
	"github.com/Iron-Ham/tomate/internal/lifecycle"
	"github.com/Iron-Ham/tomate/internal/session"
	"github.com/Iron-Ham/tomate/internal/tui/styles"
	"github.com/Iron-Ham/tomate/internal/util"
)

func newStartCmd(a *app) *cobra.Command {
	var (
		duration string
		tags     string
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "start [description]",
		Short: "Start a Pomodoro",
		Long: `Start a Pomodoro with an optional description.

The length defaults to durations.pomodoro. A bare number is read as minutes:
  tomate start "write report" -d 50 -t work,writing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStart(cmd, lifecycle.StartRequest{
				Kind:        session.KindPomodoro,
				Description: strings.Join(args, " "),
				Tags:        util.SplitList(tags),
			}, duration, progress)
		},
	}

	cmd.Flags().StringVarP(&duration, "duration", "d", "", "length of the Pomodoro, e.g. 25m or 25")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "comma-separated tags")
	cmd.Flags().BoolVarP(&progress, "progress", "p", false, "show a progress bar until the Pomodoro ends")
	return cmd
}

func newBreakCmd(a *app) *cobra.Command {
	var (
		duration string
		long     bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "break",
		Short: "Take a short or long break",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := session.KindShortBreak
			if long {
				kind = session.KindLongBreak
			}
			return a.runStart(cmd, lifecycle.StartRequest{Kind: kind}, duration, progress)
		},
	}

	cmd.Flags().StringVarP(&duration, "duration", "d", "", "length of the break, e.g. 5m or 5")
	cmd.Flags().BoolVar(&long, "long", false, "take a long break")
	cmd.Flags().BoolVarP(&progress, "progress", "p", false, "show a progress bar until the break ends")
	return cmd
}

func (a *app) runStart(cmd *cobra.Command, req lifecycle.StartRequest, duration string, progress bool) error {
	if duration != "" {
		d, err := format.ParseDuration(duration)
		if err != nil {
			return errors.NewValidationError(err.Error()).WithField("duration").WithValue(duration)
		}
		req.Duration = d
	}

	rt, err := a.open(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.manager.Start(cmd.Context(), req)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), result.Warnings)

	rec := result.Record
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s", styles.KindStyle(rec.Kind).Render("Started "+rec.Kind.Label()), format.Human(rec.Duration))
	if rec.Description != "" {
		fmt.Fprintf(out, ": %s", styles.Description.Render(rec.Description))
	}
	fmt.Fprintf(out, " (ends at %s)\n", rec.EndsAt().Local().Format(time.Kitchen))

	if progress {
		return a.watch(cmd, rt, rec)
	}
	return nil
}

func newFinishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Finish the current session and archive it",
		Long: `Finish the current session. Pomodoros are archived to history; breaks
are simply ended. A session that ran out without its end hook firing gets
the hook first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.manager.Finish(cmd.Context())
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), result.Warnings)

			rec := result.Record
			out := cmd.OutOrStdout()
			if result.Entry == nil {
				fmt.Fprintf(out, "Finished %s\n", strings.ToLower(rec.Kind.Label()))
				return nil
			}
			fmt.Fprintf(out, "Finished Pomodoro after %s", format.Human(result.Entry.Duration()))
			if rec.Description != "" {
				fmt.Fprintf(out, ": %s", rec.Description)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the current session without archiving it",
		Long: `Discard the current session. Nothing is written to history and no hook runs.

Use --force to remove a session file that can no longer be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if force {
				if err := rt.manager.Discard(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Session file removed")
				return nil
			}

			rec, err := rt.manager.Clear(cmd.Context())
			if err != nil {
				if errors.Is(err, errors.ErrCorruptState) {
					fmt.Fprintln(cmd.ErrOrStderr(), `(use "tomate clear --force" to remove the session file)`)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", strings.ToLower(rec.Kind.Label()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "remove the session file even if it cannot be read")
	return cmd
}
