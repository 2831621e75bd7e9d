// Package config loads and edits the fascicle configuration file.
//
// The file is a flat TOML table at <config-dir>/config.toml. Every option
// has a matching FASCICLE_* environment variable that overrides the file;
// command-line flags override both (resolved by the CLI layer).
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// TrackFileName is the tracked-series database name inside the config
// directory.
const TrackFileName = "tracks.db"

// DirEnvVar overrides the config directory location when set.
const DirEnvVar = "FASCICLE_CONFIG_DIR"

// EnvPrefix prefixes the per-option environment variables
// (FASCICLE_EMAIL, FASCICLE_OUTPUT, ...).
const EnvPrefix = "FASCICLE_"

// Config holds the resolved option values for one run.
type Config struct {
	Email     string `toml:"email"`
	Password  string `toml:"password"`
	Output    string `toml:"output"`
	ByVolume  bool   `toml:"byvolume"`
	Images    bool   `toml:"images"`
	Content   bool   `toml:"content"`
	NoReplace bool   `toml:"no_replace"`
	CSS       string `toml:"css"`
	Subfolder bool   `toml:"subfolder"`
	Namegen   string `toml:"namegen"`
}

// Default returns the built-in option values.
func Default() Config {
	return Config{
		Output: ".",
	}
}

// Dir returns the fascicle configuration directory: $FASCICLE_CONFIG_DIR if
// set, else <user config dir>/fascicle. The directory is not created.
func Dir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(DirEnvVar)); dir != "" {
		return filepath.Clean(dir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(base, "fascicle"), nil
}

// Path returns the configuration file path inside Dir.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// TrackDBPath returns the tracked-series database path inside Dir.
func TrackDBPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TrackFileName), nil
}

// Load reads the configuration: defaults, overlaid with the file at path
// when it exists, overlaid with FASCICLE_* environment variables. An empty
// path resolves to the default location. Returns the resolved path and
// whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved := path
	if resolved == "" {
		var err error
		resolved, err = Path()
		if err != nil {
			return nil, "", false, err
		}
	}

	exists := true
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("config: read %s: %w", resolved, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("config: parse %s: %w", resolved, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// applyEnv overlays FASCICLE_* environment variables onto the config.
func (c *Config) applyEnv() error {
	for _, opt := range options {
		value, ok := os.LookupEnv(opt.EnvVar())
		if !ok {
			continue
		}
		if err := opt.set(c, value); err != nil {
			return fmt.Errorf("config: %s: %w", opt.EnvVar(), err)
		}
	}
	return nil
}

// Option describes one configuration option for listing and editing.
type Option struct {
	Name string
	Help string
	Bool bool

	get   func(*Config) string
	set   func(*Config, string) error
	unset func(*Config)
}

// EnvVar returns the environment variable overriding this option.
func (o Option) EnvVar() string {
	return EnvPrefix + strings.ToUpper(o.Name)
}

func stringOption(name, help string, field func(*Config) *string) Option {
	return Option{
		Name: name,
		Help: help,
		get:  func(c *Config) string { return *field(c) },
		set: func(c *Config, value string) error {
			*field(c) = value
			return nil
		},
		unset: func(c *Config) {
			def := Default()
			*field(c) = *field(&def)
		},
	}
}

func boolOption(name, help string, field func(*Config) *bool) Option {
	return Option{
		Name: name,
		Help: help,
		Bool: true,
		get:  func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, value string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("not a boolean: %q", value)
			}
			*field(c) = b
			return nil
		},
		unset: func(c *Config) {
			def := Default()
			*field(c) = *field(&def)
		},
	}
}

// options is the closed set of configuration options, in display order.
var options = []Option{
	stringOption("email", "Login email for the Kisaragi Press account", func(c *Config) *string { return &c.Email }),
	stringOption("password", "Login password for the Kisaragi Press account", func(c *Config) *string { return &c.Password }),
	stringOption("output", "Folder to write the output files", func(c *Config) *string { return &c.Output }),
	boolOption("byvolume", "Output parts of different volumes as separate EPUBs", func(c *Config) *bool { return &c.ByVolume }),
	boolOption("images", "Extract the novel images into the output folder", func(c *Config) *bool { return &c.Images }),
	boolOption("content", "Extract the raw part content into the output folder", func(c *Config) *bool { return &c.Content }),
	boolOption("no_replace", "Keep characters unlikely to be in reader fonts as is", func(c *Config) *bool { return &c.NoReplace }),
	stringOption("css", "Path to a custom CSS file for the EPUBs", func(c *Config) *string { return &c.CSS }),
	boolOption("subfolder", "Create subfolders with the generated folder name", func(c *Config) *bool { return &c.Subfolder }),
	stringOption("namegen", "Naming rules for titles, file and folder names", func(c *Config) *string { return &c.Namegen }),
}

// Options lists the available configuration options in display order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Names lists the valid option names in display order.
func Names() []string {
	names := make([]string, len(options))
	for i, opt := range options {
		names[i] = opt.Name
	}
	return names
}

func lookupOption(name string) (Option, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, opt := range options {
		if opt.Name == name {
			return opt, true
		}
	}
	return Option{}, false
}

func unknownOptionError(name string) error {
	return fmt.Errorf("config: unknown option %q (valid options: %s)", name, strings.Join(Names(), ", "))
}

// Value renders the current value of an option as a string, for display.
func (c *Config) Value(name string) (string, error) {
	opt, ok := lookupOption(name)
	if !ok {
		return "", unknownOptionError(name)
	}
	return opt.get(c), nil
}

// SetOption validates and writes one option into the file at path, creating
// the file and its directory when missing. Other keys in the file are
// preserved.
func SetOption(path, name, value string) error {
	opt, ok := lookupOption(name)
	if !ok {
		return unknownOptionError(name)
	}

	// Parse into a throwaway config first so a bad value never touches the
	// file.
	var probe Config
	if err := opt.set(&probe, value); err != nil {
		return fmt.Errorf("config: option %s: %w", opt.Name, err)
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if opt.Bool {
		b, _ := strconv.ParseBool(strings.TrimSpace(value))
		doc[opt.Name] = b
	} else {
		doc[opt.Name] = value
	}
	return writeDocument(path, doc)
}

// UnsetOption removes one option from the file at path. Reports whether the
// option was present.
func UnsetOption(path, name string) (bool, error) {
	opt, ok := lookupOption(name)
	if !ok {
		return false, unknownOptionError(name)
	}

	doc, err := readDocument(path)
	if err != nil {
		return false, err
	}
	if _, present := doc[opt.Name]; !present {
		return false, nil
	}
	delete(doc, opt.Name)
	return true, writeDocument(path, doc)
}

// readDocument reads the raw TOML table at path, or an empty table when the
// file does not exist. Keys unknown to fascicle are kept so edits round-trip.
func readDocument(path string) (map[string]any, error) {
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return doc, nil
}

func writeDocument(path string, doc map[string]any) error {
	// One key per Marshal call keeps the file a flat, sorted list of
	// key = value lines.
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, k := range keys {
		line, err := toml.Marshal(map[string]any{k: doc[k]})
		if err != nil {
			return fmt.Errorf("config: encode %s: %w", k, err)
		}
		buf.Write(line)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create config directory: %w", err)
		}
	}
	// The file can hold the account password.
	if err := os.WriteFile(path, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// CreateSample writes the embedded sample configuration to path. Fails when
// a file already exists there.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("config: write sample config: %w", err)
	}
	return nil
}
