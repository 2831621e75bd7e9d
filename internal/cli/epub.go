package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fascicle/internal/core"
	"fascicle/internal/partspec"
	"fascicle/internal/weburl"
)

// EpubOptions holds flags for the epub command.
type EpubOptions struct {
	*RootOptions
	Login loginFlags
	Book  epubFlags
	Parts string
}

// NewEpubCommand creates the epub command.
func NewEpubCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EpubOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "epub URL",
		Short: "Generate EPUB files for a series, volume or part",
		Long: `Generate EPUB files for the URL of a series, volume or part on the
Kisaragi Press website.

Example:
  fascicle epub https://kisaragi.press/series/some-series
  fascicle epub --parts 2.1: https://kisaragi.press/series/some-series`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateEPUBs(cmd.Context(), opts, args[0], cmd)
		},
	}

	addLoginFlags(cmd, &opts.Login)
	addEpubFlags(cmd, &opts.Book)
	cmd.Flags().StringVarP(&opts.Parts, "parts", "s", "", "parts to download: '2' for a volume, '2.4' for a part, '1.5:3' for a range, ':' for everything")

	return cmd
}

func generateEPUBs(ctx context.Context, opts *EpubOptions, rawURL string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(cmd, &opts.Login, &opts.Book)
	if err != nil {
		return err
	}

	res, err := weburl.Parse(rawURL)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad series URL", err)
	}

	gen, err := nameGenerator(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}

	session, err := openSession(ctx, opts.RootOptions, cfg)
	if err != nil {
		return err
	}
	defer session.Logout(context.WithoutCancel(ctx))

	slug, err := session.ResolveSeries(ctx, res)
	if err != nil {
		return err
	}
	series, err := session.FetchMeta(ctx, slug)
	if err != nil {
		return err
	}
	if err := core.CheckNovel(series); err != nil {
		return WrapExitError(ExitCommandError, "cannot generate EPUB", err)
	}

	var sp partspec.Spec
	if opts.Parts != "" {
		fmt.Fprintf(opts.stdout(), "Using part specification '%s'\n", opts.Parts)
		sp, err = partspec.Parse(opts.Parts)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad part specification", err)
		}
	} else {
		sp, err = core.ToPartSpec(series, res)
		if err != nil {
			return err
		}
	}

	paths, err := session.GenerateBooks(ctx, series, partspec.Select(series, sp), gen, epubOptions(cfg))
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintf(opts.stdout(), "Success! EPUB generated in '%s'!\n", path)
	}
	return nil
}
