package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"fascicle/internal/core"
	"fascicle/internal/track"
	"fascicle/internal/update"
	"fascicle/internal/weburl"
)

// NewTrackCommand creates the track command and its subcommands.
func NewTrackCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track updates to a series",
	}

	cmd.AddCommand(newTrackAddCommand(rootOpts))
	cmd.AddCommand(newTrackRmCommand(rootOpts))
	cmd.AddCommand(newTrackListCommand(rootOpts))
	cmd.AddCommand(newTrackSyncCommand(rootOpts))

	return cmd
}

// trackAddOptions holds flags for the track add command.
type trackAddOptions struct {
	*RootOptions
	Login     loginFlags
	Beginning bool
}

func newTrackAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &trackAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "add URL",
		Short:         "Add a series to the tracked list",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return trackSeries(cmd.Context(), opts, args[0], cmd)
		},
	}

	addLoginFlags(cmd, &opts.Login)
	cmd.Flags().BoolVar(&opts.Beginning, "beginning", false, "track the series from the beginning instead of the last released part")

	return cmd
}

func trackSeries(ctx context.Context, opts *trackAddOptions, rawURL string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(cmd, &opts.Login)
	if err != nil {
		return err
	}

	res, err := weburl.Parse(rawURL)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad series URL", err)
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

	slug, err := session.ResolveSeries(ctx, res)
	if err != nil {
		return err
	}

	if entry, found, err := store.Get(ctx, weburl.SeriesURL(slug)); err != nil {
		return err
	} else if found {
		fmt.Fprintf(opts.stdout(), "The series '%s' is already tracked!\n", entry.Name)
		return nil
	}

	series, err := session.FetchMeta(ctx, slug)
	if err != nil {
		return err
	}
	if err := core.CheckNovel(series); err != nil {
		return WrapExitError(ExitCommandError, "cannot track series", err)
	}

	record := update.NewTrackedSeries(session, series, opts.Beginning)
	if err := store.Add(ctx, record); err != nil {
		return err
	}
	fmt.Fprintln(opts.stdout(), trackedMessage(record))
	return nil
}

// trackedMessage renders the confirmation line for a newly tracked series.
func trackedMessage(record track.Series) string {
	if record.FromBeginning() {
		return fmt.Sprintf("The series '%s' is now tracked, starting from the beginning", record.Name)
	}
	return fmt.Sprintf("The series '%s' is now tracked, starting after part %s [%s]",
		record.Name, record.PartSpec, record.PartDate.Format("Jan 02, 2006"))
}

// trackRmOptions holds flags for the track rm command.
type trackRmOptions struct {
	*RootOptions
	Login loginFlags
}

func newTrackRmCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &trackRmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rm URL|INDEX",
		Short: "Remove a series from the tracked list",
		Long: `Remove a series from the tracked list, addressed either by its URL or
by its position in the "track list" output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return untrackSeries(cmd.Context(), opts, args[0], cmd)
		},
	}

	addLoginFlags(cmd, &opts.Login)

	return cmd
}

func untrackSeries(ctx context.Context, opts *trackRmOptions, ref string, cmd *cobra.Command) error {
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

	key := ref
	if _, err := strconv.Atoi(ref); err != nil {
		key, err = canonicalURL(ctx, opts, ref, cmd)
		if err != nil {
			return err
		}
	}

	removed, found, err := store.Rm(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("%q does not match a tracked series (use \"fascicle track list\")", ref))
	}
	fmt.Fprintf(opts.stdout(), "The series '%s' is no longer tracked\n", removed.Name)
	return nil
}

// canonicalURL rewrites any series URL form into the track store key.
// Series and current-site volume URLs resolve offline; legacy volume and
// part URLs need the API, so those log in.
func canonicalURL(ctx context.Context, opts *trackRmOptions, rawURL string, cmd *cobra.Command) (string, error) {
	if canonical, err := weburl.CanonicalSeriesURL(rawURL); err == nil {
		return canonical, nil
	}

	res, err := weburl.Parse(rawURL)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "bad series URL", err)
	}

	cfg, err := resolveConfig(cmd, &opts.Login)
	if err != nil {
		return "", err
	}
	session, err := openSession(ctx, opts.RootOptions, cfg)
	if err != nil {
		return "", err
	}
	defer session.Logout(context.WithoutCancel(ctx))

	slug, err := session.ResolveSeries(ctx, res)
	if err != nil {
		return "", err
	}
	return weburl.SeriesURL(slug), nil
}

// trackListOptions holds flags for the track list command.
type trackListOptions struct {
	*RootOptions
	Details bool
}

func newTrackListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &trackListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List tracked series",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTracked(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Details, "details", false, "show the last part and URL of each series")

	return cmd
}

func listTracked(ctx context.Context, opts *trackListOptions) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(ctx)
	if err != nil {
		return err
	}

	w := opts.stdout()
	if len(list) == 0 {
		fmt.Fprintln(w, "No series is tracked.")
		return nil
	}

	fmt.Fprintf(w, "%d series are tracked:\n", len(list))
	if !opts.Details {
		for i, entry := range list {
			fmt.Fprintf(w, "[%d] %s\n", i+1, entry.Name)
		}
		return nil
	}

	rows := make([]table.Row, 0, len(list))
	for i, entry := range list {
		rows = append(rows, table.Row{i + 1, entry.Name, lastPartCell(entry), entry.URL})
	}
	renderTable(w, table.Row{"#", "Name", "Last Part", "URL"}, rows, 1)
	return nil
}

// lastPartCell renders the position column of the track list table.
func lastPartCell(entry track.Series) string {
	if entry.FromBeginning() {
		return "No part released"
	}
	if entry.PartDate.IsZero() {
		return entry.PartSpec
	}
	return fmt.Sprintf("%s [%s]", entry.PartSpec, entry.PartDate.Format("Jan 02, 2006"))
}

// trackSyncOptions holds flags for the track sync command.
type trackSyncOptions struct {
	*RootOptions
	Login   loginFlags
	Reverse bool
	Delete  bool
}

func newTrackSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &trackSyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the tracked list with the followed series",
		Long: `Sync the tracked series list with the series followed on the Kisaragi
Press account: newly followed series become tracked. With --reverse, the
account follows the locally tracked series instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncTracked(cmd.Context(), opts, cmd)
		},
	}

	addLoginFlags(cmd, &opts.Login)
	cmd.Flags().BoolVarP(&opts.Reverse, "reverse", "r", false, "sync the account followed series from the tracked list")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "also delete series missing from the source of the sync")

	return cmd
}

func syncTracked(ctx context.Context, opts *trackSyncOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(cmd, &opts.Login)
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

	w := opts.stdout()
	fmt.Fprintln(w, "Fetch followed series from Kisaragi Press...")
	result, err := checker.SyncFollowed(ctx, update.SyncOptions{
		Reverse: opts.Reverse,
		Delete:  opts.Delete,
	})
	if err != nil {
		return err
	}

	for _, record := range result.Added {
		fmt.Fprintln(w, trackedMessage(record))
	}
	for _, record := range result.Removed {
		fmt.Fprintf(w, "The series '%s' is no longer tracked\n", record.Name)
	}
	for _, title := range result.Followed {
		fmt.Fprintf(w, "Follow '%s'...\n", title)
	}
	for _, title := range result.Unfollowed {
		fmt.Fprintf(w, "Unfollow '%s'...\n", title)
	}

	if len(result.Added)+len(result.Removed)+len(result.Followed)+len(result.Unfollowed) == 0 {
		fmt.Fprintln(w, "Everything is already in sync!")
	}
	return nil
}
