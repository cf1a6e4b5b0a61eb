package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/history"
	"github.com/Iron-Ham/tomate/internal/tui"
)

// Output formats accepted by "history -o".
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func newHistoryCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished Pomodoros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains([]string{outputTable, outputJSON, outputYAML}, output) {
				return errors.NewValidationError("output must be one of: table, json, yaml").
					WithField("output").WithValue(output)
			}

			rt, err := a.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.manager.History(cmd.Context())
			if err != nil {
				return err
			}
			return writeHistory(cmd, output, entries)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json, yaml")
	return cmd
}

func writeHistory(cmd *cobra.Command, output string, entries []history.Entry) error {
	out := cmd.OutOrStdout()
	switch output {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		fmt.Fprint(out, tui.RenderHistory(entries))
		return nil
	}
}

func newPurgeCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the current session and all history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Delete the current session and all history? [y/N] ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			rt, err := a.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.manager.Purge(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Purged session and history")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "do not ask for confirmation")
	return cmd
}
