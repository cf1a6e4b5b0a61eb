package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/tomate/internal/config"
	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/format"
	"github.com/Iron-Ham/tomate/internal/hooks"
)

// settable lists the keys "config set" accepts and how their values parse.
var settable = map[string]string{
	"durations.pomodoro":    "duration",
	"durations.short_break": "duration",
	"durations.long_break":  "duration",
	"paths.hooks_dir":       "string",
	"paths.state_file":      "string",
	"paths.history_file":    "string",
	"history.backend":       "string",
	"scheduler.backend":     "string",
	"scheduler.accuracy":    "duration",
	"logging.enabled":       "bool",
	"logging.level":         "string",
	"logging.max_size_mb":   "int",
	"logging.max_backups":   "int",
}

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify tomate configuration",
		Long: `View or modify tomate configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
		RunE: a.runConfigShow,
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigShow,
	}

	configSetCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Keys use dot notation, e.g.:
  tomate config set durations.pomodoro 50m
  tomate config set history.backend sqlite
  tomate config set scheduler.backend none

Valid keys:
  ` + strings.Join(settableKeys(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: a.runConfigSet,
	}

	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigInit,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		Args:  cobra.NoArgs,
		RunE:  a.runConfigPath,
	}

	configCmd.AddCommand(configShowCmd, configSetCmd, configInitCmd, configPathCmd)
	return configCmd
}

func settableKeys() []string {
	keys := make([]string, 0, len(settable))
	for key := range settable {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// configPath is the file "config set" and "config init" write to.
func (a *app) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.ConfigFile()
}

func (a *app) runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if used := a.v.ConfigFileUsed(); used != "" && fileExists(used) {
		fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(a.v.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func (a *app) runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	value := args[1]

	keyType, ok := settable[key]
	if !ok {
		return errors.NewValidationError("unknown configuration key; run 'tomate config set --help' to see valid keys").
			WithField("key").WithValue(key)
	}

	var typedValue any
	switch keyType {
	case "duration":
		d, err := format.ParseDuration(value)
		if err != nil {
			return errors.NewValidationError("expected a duration such as 25m").WithField(key).WithValue(value)
		}
		typedValue = d.String()
	case "bool":
		b, err := cast.ToBoolE(value)
		if err != nil {
			return errors.NewValidationError("expected true or false").WithField(key).WithValue(value)
		}
		typedValue = b
	case "int":
		n, err := cast.ToIntE(value)
		if err != nil {
			return errors.NewValidationError("expected an integer").WithField(key).WithValue(value)
		}
		typedValue = n
	default:
		typedValue = value
	}

	path := a.configPath()

	// Only the file's own settings are written back, not env or flags.
	file := viper.New()
	file.SetConfigType("yaml")
	file.SetConfigFile(path)
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	file.Set(key, typedValue)

	// Validate the result before writing it.
	check := viper.New()
	config.SetDefaultsOn(check)
	if err := check.MergeConfigMap(file.AllSettings()); err != nil {
		return err
	}
	if _, err := config.LoadFrom(check); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", path)
	return nil
}

const defaultConfigContent = `# tomate configuration

# Default session lengths. A bare number on the command line means minutes.
durations:
  pomodoro: 25m
  short_break: 5m
  long_break: 15m

# Empty paths use the XDG defaults:
#   hooks_dir:    $XDG_CONFIG_HOME/tomate/hooks
#   state_file:   $XDG_STATE_HOME/tomate/current.toml
#   history_file: $XDG_DATA_HOME/tomate/history.toml (history.db for sqlite)
paths:
  hooks_dir: ""
  state_file: ""
  history_file: ""

# Where finished Pomodoros are archived
# Options: toml, sqlite
history:
  backend: toml

# How the end hook is triggered when a session runs out
# Options: systemd (systemd-run --user), none (only on finish or timer check)
scheduler:
  backend: systemd
  accuracy: 100ms

# Diagnostic log, written next to the state file
logging:
  enabled: true
  level: info
  max_size_mb: 10
  max_backups: 3
`

func (a *app) runConfigInit(cmd *cobra.Command, args []string) error {
	path := a.configPath()

	// Check if config file already exists
	if fileExists(path) {
		return fmt.Errorf("config file already exists at %s\nUse 'tomate config set' to modify values", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", path)
	return nil
}

func (a *app) runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := a.configPath()

	if fileExists(path) {
		fmt.Fprintf(out, "Active config: %s\n", path)
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", path)
	}

	paths := a.cfg.Paths
	fmt.Fprintln(out, "\nData files:")
	fmt.Fprintf(out, "  session: %s\n", paths.ResolveStateFile())
	fmt.Fprintf(out, "  history: %s\n", paths.ResolveHistoryFile(a.cfg.History.Backend))
	fmt.Fprintf(out, "  hooks:   %s\n", paths.ResolveHooksDir())
	fmt.Fprintf(out, "  log:     %s\n", paths.ResolveLogFile())

	fmt.Fprintln(out, "\nHooks:")
	dispatcher := hooks.NewDispatcher(paths.ResolveHooksDir(), nil)
	for _, event := range hooks.Events() {
		state := "-"
		if fileExists(dispatcher.Path(event)) {
			state = "installed"
		}
		fmt.Fprintf(out, "  %-17s %s\n", event, state)
	}
	fmt.Fprintln(out, "\nEnvironment variables: TOMATE_* (e.g., TOMATE_DURATIONS_POMODORO)")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
