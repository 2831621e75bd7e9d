package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands, plus the seams the
// tests use to run commands against buffers and fake servers.
type RootOptions struct {
	Debug bool

	// Out and Err override the process streams (for testing).
	Out io.Writer
	Err io.Writer

	// APIBase overrides the Kisaragi Press API origin (for testing).
	APIBase string

	// ReadPassword overrides the terminal password prompt (for testing).
	ReadPassword func() (string, error)
}

func (o *RootOptions) stdout() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func (o *RootOptions) stderr() io.Writer {
	if o.Err != nil {
		return o.Err
	}
	return os.Stderr
}

// NewRootCommand creates the root command for the fascicle CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fascicle",
		Short: "Generate EPUB files for Kisaragi Press prepub novels",
		Long: `Simple command-line tool to generate EPUB files for Kisaragi Press
prepub novels, and to track your favorite series for new parts.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "log debug information to stderr")

	// Add subcommands
	cmd.AddCommand(NewEpubCommand(opts))
	cmd.AddCommand(NewTrackCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// setupLogging routes slog to stderr so human output on stdout stays
// clean enough to pipe.
func setupLogging(opts *RootOptions) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(opts.stderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
