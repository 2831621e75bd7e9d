package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Legacy pre-2.0 layout: a dot-directory in the user's home with an
// INI-style config and a JSON track file.
const (
	legacyDirName        = ".fascicle"
	LegacyConfigFileName = "config.ini"
	LegacyTrackFileName  = "tracked.json"
)

// LegacyDir returns the pre-2.0 configuration directory (~/.fascicle).
func LegacyDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, legacyDirName), nil
}

// LegacyConfigPath returns the pre-2.0 INI config file path.
func LegacyConfigPath() (string, error) {
	dir, err := LegacyDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LegacyConfigFileName), nil
}

// LegacyTrackPath returns the pre-2.0 JSON track file path.
func LegacyTrackPath() (string, error) {
	dir, err := LegacyDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LegacyTrackFileName), nil
}

// ImportLegacy folds the options of the legacy INI file at legacyPath into
// the TOML file at path, overwriting options present in both. Keys unknown
// to fascicle and unparsable boolean values are skipped. Returns the names
// of the imported options in file order.
func ImportLegacy(legacyPath, path string) ([]string, error) {
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		return nil, fmt.Errorf("config: read legacy config %s: %w", legacyPath, err)
	}

	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var imported []string
	for _, entry := range parseLegacyINI(string(data)) {
		opt, ok := lookupOption(legacyOptionName(entry.key))
		if !ok {
			continue
		}
		if opt.Bool {
			b, err := strconv.ParseBool(strings.TrimSpace(entry.value))
			if err != nil {
				continue
			}
			doc[opt.Name] = b
		} else {
			doc[opt.Name] = entry.value
		}
		imported = append(imported, opt.Name)
	}

	if len(imported) == 0 {
		return nil, nil
	}
	return imported, writeDocument(path, doc)
}

// legacyOptionName maps a legacy INI key to the current option name. The old
// tool named the email option LOGIN and wrote no_replace without the
// underscore.
func legacyOptionName(key string) string {
	name := strings.ToLower(strings.TrimSpace(key))
	switch name {
	case "login":
		return "email"
	case "noreplace":
		return "no_replace"
	}
	return name
}

type legacyEntryKV struct {
	key   string
	value string
}

// parseLegacyINI reads KEY = VALUE pairs from an INI document, ignoring
// section headers, comments and blank lines. Both "=" and ":" separate keys
// from values, matching what the old config parser accepted.
func parseLegacyINI(text string) []legacyEntryKV {
	var entries []legacyEntryKV
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			continue
		}

		sep := strings.IndexAny(line, "=:")
		if sep <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		if key == "" {
			continue
		}
		entries = append(entries, legacyEntryKV{key: key, value: value})
	}
	return entries
}
