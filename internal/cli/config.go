package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"fascicle/internal/config"
)

// NewConfigCommand creates the config command and its subcommands.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the fascicle configuration",
	}

	cmd.AddCommand(newConfigListCommand(rootOpts))
	cmd.AddCommand(newConfigSetCommand(rootOpts))
	cmd.AddCommand(newConfigUnsetCommand(rootOpts))
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	cmd.AddCommand(newConfigShowPathCommand(rootOpts))
	cmd.AddCommand(newConfigMigrateCommand(rootOpts))

	return cmd
}

func newConfigListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the available options and their current values",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listConfig(rootOpts)
		},
	}
}

func listConfig(opts *RootOptions) error {
	cfg, path, exists, err := config.Load("")
	if err != nil {
		return err
	}

	w := opts.stdout()
	if exists {
		fmt.Fprintf(w, "Configuration file: %s\n", path)
	} else {
		fmt.Fprintf(w, "Configuration file: %s (not found)\n", path)
	}

	rows := make([]table.Row, 0, len(config.Options()))
	for _, opt := range config.Options() {
		value, err := cfg.Value(opt.Name)
		if err != nil {
			return err
		}
		if opt.Name == "password" {
			value = strings.Repeat("*", len(value))
		}
		rows = append(rows, table.Row{opt.Name, value, opt.Help})
	}
	renderTable(w, table.Row{"Option", "Value", "Description"}, rows)
	return nil
}

func newConfigSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "set OPTION VALUE",
		Short:         "Set the value of an option in the configuration file",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigOption(rootOpts, args[0], args[1])
		},
	}
}

func setConfigOption(opts *RootOptions, name, value string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	_, statErr := os.Stat(path)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := config.SetOption(path, name, value); err != nil {
		return WrapExitError(ExitCommandError, "cannot set option", err)
	}

	w := opts.stdout()
	fmt.Fprintf(w, "Option '%s' set to '%s'\n", name, value)
	if created {
		fmt.Fprintf(w, "Configuration file created: %s\n", path)
	}
	return nil
}

func newConfigUnsetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unset OPTION",
		Short:         "Remove an option from the configuration file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return unsetConfigOption(rootOpts, args[0])
		},
	}
}

func unsetConfigOption(opts *RootOptions, name string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	removed, err := config.UnsetOption(path, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot unset option", err)
	}

	w := opts.stdout()
	if !removed {
		fmt.Fprintf(w, "Option '%s' not set in config\n", name)
		return nil
	}
	fmt.Fprintf(w, "Option '%s' unset\n", name)
	return nil
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "init",
		Short:         "Create a configuration file with the documented defaults",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(rootOpts)
		},
	}
}

func initConfig(opts *RootOptions) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	w := opts.stdout()
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "Configuration file already exists: %s\n", path)
		return nil
	}

	if err := config.CreateSample(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "New configuration file created: %s\n", path)
	return nil
}

func newConfigShowPathCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show-path",
		Short:         "Print the configuration directory path",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			fmt.Fprintln(rootOpts.stdout(), dir)
			return nil
		},
	}
}

func newConfigMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Import the configuration and tracked series of fascicle 1.x",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateLegacy(cmd.Context(), rootOpts)
		},
	}
}

func migrateLegacy(ctx context.Context, opts *RootOptions) error {
	w := opts.stdout()
	migrated := false

	legacyConfig, err := config.LegacyConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(legacyConfig); err == nil {
		path, err := config.Path()
		if err != nil {
			return err
		}
		imported, err := config.ImportLegacy(legacyConfig, path)
		if err != nil {
			return err
		}
		if len(imported) > 0 {
			fmt.Fprintf(w, "Imported %d option(s) from %s\n", len(imported), legacyConfig)
			migrated = true
		}
	}

	legacyTrack, err := config.LegacyTrackPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(legacyTrack); err == nil {
		release, err := lockRun()
		if err != nil {
			return err
		}
		defer release()

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.Migrate(ctx, legacyTrack)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Imported %d tracked series from %s\n", count, legacyTrack)
		migrated = true
	}

	if !migrated {
		fmt.Fprintln(w, "No legacy configuration found.")
		return nil
	}

	legacyDir, err := config.LegacyDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "You may delete the old folder: %s\n", legacyDir)
	return nil
}
