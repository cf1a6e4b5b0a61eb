package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tomate/internal/lifecycle"
)

func newTimerCmd(a *app) *cobra.Command {
	timerCmd := &cobra.Command{
		Use:    "timer",
		Short:  "Timer plumbing used by the scheduler",
		Hidden: true,
	}

	var verbose bool
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run the end hook if the current session has run out",
		Long: `Run the end hook if the current session has run out and the hook has not
fired yet. Safe to run any number of times; systemd-run schedules it for
the moment a session ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.manager.CheckExpiry(cmd.Context())
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), result.Warnings)

			if verbose || result.Outcome == lifecycle.OutcomeFired {
				fmt.Fprintln(cmd.OutOrStdout(), string(result.Outcome))
			}
			return nil
		},
	}
	checkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the outcome even when nothing happened")

	timerCmd.AddCommand(checkCmd)
	return timerCmd
}
