package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fascicle/internal/config"
	"fascicle/internal/epub"
	"fascicle/internal/namegen"
)

// overlay is a flag group that can lay its set flags over the loaded
// configuration. Flags the user did not pass leave the config values alone.
type overlay interface {
	apply(cmd *cobra.Command, cfg *config.Config)
}

// loginFlags carries the credential flags shared by every command that
// talks to the API.
type loginFlags struct {
	Email    string
	Password string
}

func addLoginFlags(cmd *cobra.Command, flags *loginFlags) {
	cmd.Flags().StringVarP(&flags.Email, "email", "l", "", "login email for the Kisaragi Press account")
	cmd.Flags().StringVarP(&flags.Password, "password", "w", "", "login password for the Kisaragi Press account")
}

func (f *loginFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("email") {
		cfg.Email = f.Email
	}
	if cmd.Flags().Changed("password") {
		cfg.Password = f.Password
	}
}

// epubFlags carries the EPUB output flags shared by the epub and update
// commands.
type epubFlags struct {
	Output    string
	ByVolume  bool
	Images    bool
	Content   bool
	NoReplace bool
	CSS       string
	Subfolder bool
	Namegen   string
}

func addEpubFlags(cmd *cobra.Command, flags *epubFlags) {
	cmd.Flags().StringVarP(&flags.Output, "output", "o", ".", "folder the EPUB files are written into")
	cmd.Flags().BoolVarP(&flags.ByVolume, "byvolume", "v", false, "generate one EPUB per volume instead of one per run")
	cmd.Flags().BoolVarP(&flags.Images, "images", "i", false, "also write the part images as individual files")
	cmd.Flags().BoolVarP(&flags.Content, "content", "c", false, "also write the raw part content as individual files")
	cmd.Flags().BoolVarP(&flags.NoReplace, "no-replace", "n", false, "keep unicode characters some readers cannot display")
	cmd.Flags().StringVarP(&flags.CSS, "css", "t", "", "custom CSS file for the EPUB content")
	cmd.Flags().BoolVarP(&flags.Subfolder, "subfolder", "u", false, "write the files into a subfolder named after the series")
	cmd.Flags().StringVarP(&flags.Namegen, "namegen", "g", "", "naming rules for the generated files")
}

func (f *epubFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("output") {
		cfg.Output = f.Output
	}
	if cmd.Flags().Changed("byvolume") {
		cfg.ByVolume = f.ByVolume
	}
	if cmd.Flags().Changed("images") {
		cfg.Images = f.Images
	}
	if cmd.Flags().Changed("content") {
		cfg.Content = f.Content
	}
	if cmd.Flags().Changed("no-replace") {
		cfg.NoReplace = f.NoReplace
	}
	if cmd.Flags().Changed("css") {
		cfg.CSS = f.CSS
	}
	if cmd.Flags().Changed("subfolder") {
		cfg.Subfolder = f.Subfolder
	}
	if cmd.Flags().Changed("namegen") {
		cfg.Namegen = f.Namegen
	}
}

// resolveConfig loads the configuration file and environment, then lays
// the command-line flags on top. Flags win over environment over file.
func resolveConfig(cmd *cobra.Command, overlays ...overlay) (*config.Config, error) {
	cfg, _, _, err := config.Load("")
	if err != nil {
		return nil, err
	}
	for _, o := range overlays {
		o.apply(cmd, cfg)
	}
	return cfg, nil
}

// epubOptions maps the resolved configuration to EPUB generation options.
func epubOptions(cfg *config.Config) epub.Options {
	return epub.Options{
		OutputDir:      cfg.Output,
		ByVolume:       cfg.ByVolume,
		ExtractImages:  cfg.Images,
		ExtractContent: cfg.Content,
		NoReplaceChars: cfg.NoReplace,
		StyleCSSPath:   cfg.CSS,
		Subfolder:      cfg.Subfolder,
		NamingRules:    cfg.Namegen,
	}
}

// nameGenerator compiles the configured naming rules.
func nameGenerator(cfg *config.Config) (*namegen.Generator, error) {
	gen, err := namegen.NewGenerator(cfg.Namegen)
	if err != nil {
		return nil, fmt.Errorf("invalid namegen rules: %w", err)
	}
	return gen, nil
}
