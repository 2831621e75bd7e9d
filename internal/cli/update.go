package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fascicle/internal/update"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Login loginFlags
	Book  epubFlags

	Sync        bool
	Beginning   bool
	Managed     bool
	WholeVolume bool
	WholeFinal  bool
	UseEvents   bool
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update [URL]",
		Short: "Generate EPUB files for new parts of tracked series",
		Long: `Check every tracked series for new parts and generate EPUB files for
them. With a URL argument, only that series is checked.

Example:
  fascicle update
  fascicle update --use-events
  fascicle update https://kisaragi.press/series/some-series`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTracked(cmd.Context(), opts, args, cmd)
		},
	}

	addLoginFlags(cmd, &opts.Login)
	addEpubFlags(cmd, &opts.Book)
	cmd.Flags().BoolVar(&opts.Sync, "sync", false, "sync the tracked list with the followed series first, and update only the newly added ones")
	cmd.Flags().BoolVar(&opts.Beginning, "beginning", false, "with --sync, download newly added series from the beginning")
	cmd.Flags().BoolVar(&opts.Managed, "managed", false, "treat the followed series as the source of truth: sync, prune, then update everything")
	cmd.Flags().BoolVar(&opts.WholeVolume, "whole-volume", false, "generate the whole volume when it has a new part")
	cmd.Flags().BoolVar(&opts.WholeFinal, "whole-final", false, "regenerate the whole volume when its final part arrives")
	cmd.Flags().BoolVar(&opts.UseEvents, "use-events", false, "consult the publishing events feed to skip series without announced parts")

	return cmd
}

func updateTracked(ctx context.Context, opts *UpdateOptions, args []string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(cmd, &opts.Login, &opts.Book)
	if err != nil {
		return err
	}

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

	session, err := openSession(ctx, opts.RootOptions, cfg)
	if err != nil {
		return err
	}
	defer session.Logout(context.WithoutCancel(ctx))

	checker, err := newChecker(session, store, cfg)
	if err != nil {
		return err
	}

	options := update.Options{
		Sync:        opts.Sync,
		Beginning:   opts.Beginning,
		Managed:     opts.Managed,
		WholeVolume: opts.WholeVolume,
		WholeFinal:  opts.WholeFinal,
		UseEvents:   opts.UseEvents,
	}

	w := opts.stdout()
	if len(args) == 1 {
		result, err := checker.UpdateOne(ctx, args[0], options)
		if err != nil {
			return err
		}
		reportResult(w, result)
		return nil
	}

	results, err := checker.UpdateAll(ctx, options)
	if err != nil {
		return err
	}
	return reportRun(w, results, options)
}

// reportResult prints the outcome of one series check.
func reportResult(w io.Writer, result update.Result) {
	for _, path := range result.Paths {
		fmt.Fprintf(w, "Success! EPUB generated in '%s'!\n", path)
	}
	if result.Updated {
		fmt.Fprintf(w, "The series '%s' has been updated!\n", result.Tracked.Name)
	} else {
		fmt.Fprintf(w, "The series '%s' is already up to date!\n", result.Tracked.Name)
	}
}

// reportRun prints per-series outcomes and the closing summary of a full
// update run. Per-series failures turn into a failure exit code after
// every series had its chance.
func reportRun(w io.Writer, results []update.Result, options update.Options) error {
	if len(results) == 0 {
		if options.Sync {
			fmt.Fprintln(w, "There are no new series to sync. Use the Follow button on a series page on the Kisaragi Press website.")
		} else {
			fmt.Fprintln(w, "There are no tracked series! Use the \"fascicle track add\" command first.")
		}
		return nil
	}

	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(w, "The series '%s' could not be updated: %v\n", result.Tracked.Name, result.Err)
			continue
		}
		for _, path := range result.Paths {
			fmt.Fprintf(w, "Success! EPUB generated in '%s'!\n", path)
		}
		if result.Updated {
			fmt.Fprintf(w, "The series '%s' has been updated!\n", result.Tracked.Name)
		}
	}

	summary := update.Summarize(results)
	switch {
	case summary.Updated > 0:
		fmt.Fprintf(w, "%d series successfully updated!\n", summary.Updated)
	case summary.Failed == 0:
		fmt.Fprintln(w, "All series are already up to date!")
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, "some series could not be updated")
	}
	return nil
}
