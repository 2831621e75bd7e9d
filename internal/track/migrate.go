package track

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fascicle/internal/weburl"
)

// legacyEntry is the newer of the two entry shapes found in the pre-2.0
// tracked.json file.
type legacyEntry struct {
	Name          string          `json:"name"`
	Part          json.RawMessage `json:"part"`
	PartDate      string          `json:"part_date"`
	SeriesID      string          `json:"series_id"`
	LastCheckDate string          `json:"last_check_date"`
}

// Migrate imports the pre-2.0 JSON track file into the store and returns
// the number of imported series. The legacy file accumulated two entry
// generations: series-URL keys mapping to objects, and an older slug-keyed
// form whose value is just the last part. URLs are rewritten to their
// canonical current-site form on the way in.
func (s *Store) Migrate(ctx context.Context, legacyPath string) (int, error) {
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		return 0, fmt.Errorf("read legacy track file: %w", err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse legacy track file: %w", err)
	}

	count := 0
	for key, raw := range entries {
		series, err := legacySeries(key, raw)
		if err != nil {
			return count, fmt.Errorf("legacy entry %q: %w", key, err)
		}
		if err := s.Add(ctx, series); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func legacySeries(key string, raw json.RawMessage) (Series, error) {
	var entry legacyEntry
	if isJSONObject(raw) {
		if err := json.Unmarshal(raw, &entry); err != nil {
			return Series{}, err
		}
	} else {
		// oldest form: the key is the series slug and the value the bare
		// last part
		entry.Part = raw
		entry.Name = titleFromSlug(key)
		key = weburl.SeriesURL(key)
	}

	url, err := weburl.CanonicalSeriesURL(key)
	if err != nil {
		return Series{}, err
	}

	partSpec, err := partSpecFromJSON(entry.Part)
	if err != nil {
		return Series{}, err
	}
	partDate, err := parseTime(entry.PartDate)
	if err != nil {
		return Series{}, fmt.Errorf("bad part_date %q: %w", entry.PartDate, err)
	}
	lastCheck, err := parseTime(entry.LastCheckDate)
	if err != nil {
		return Series{}, fmt.Errorf("bad last_check_date %q: %w", entry.LastCheckDate, err)
	}

	return Series{
		URL:           url,
		SeriesID:      entry.SeriesID,
		Name:          entry.Name,
		PartSpec:      partSpec,
		PartDate:      partDate,
		LastCheckDate: lastCheck,
	}, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

// partSpecFromJSON normalizes the legacy part value, which can be a "v.p"
// string, the number 0 (tracked from the beginning) or a bare number from
// the oldest file format.
func partSpecFromJSON(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return TrackedFromBeginning, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num == math.Trunc(num) {
			return strconv.Itoa(int(num)), nil
		}
		return strconv.FormatFloat(num, 'f', -1, 64), nil
	}

	return "", fmt.Errorf("unrecognized part value %s", raw)
}

// titleFromSlug is the low effort display name for slug-keyed entries,
// which never recorded one.
func titleFromSlug(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}
