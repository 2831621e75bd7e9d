// Package track persists the list of followed series between runs.
//
// The store is a single-file SQLite database (default <config-dir>/tracks.db)
// holding one row per tracked series: its canonical URL, display name, and
// the last downloaded part with its launch date. The update command reads
// the rows to decide which parts are new and writes back the advanced
// position after each successful pass.
package track

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// TrackedFromBeginning is the part_spec recorded when a series is tracked
// with no part downloaded yet; the update command treats it as "everything
// is new".
const TrackedFromBeginning = "0"

// BeginningPartDate is the placeholder launch date paired with
// TrackedFromBeginning. 1111 rather than 0000 so the value stays a valid
// date everywhere it travels.
var BeginningPartDate = time.Date(1111, time.November, 11, 11, 11, 11, 111000000, time.UTC)

// FarPastCheckDate is the last_check_date given to series tracked from the
// beginning. It predates any possible events feed window, which forces the
// next update to fetch the full series metadata instead of trusting the
// feed.
var FarPastCheckDate = time.Date(1000, time.October, 10, 10, 10, 10, 0, time.UTC)

// Series is one tracked series record.
type Series struct {
	URL           string
	SeriesID      string
	Name          string
	PartSpec      string
	PartDate      time.Time
	LastCheckDate time.Time
}

// FromBeginning reports whether the series was tracked before any part was
// downloaded.
func (s Series) FromBeginning() bool {
	return s.PartSpec == TrackedFromBeginning
}

// Store provides durable storage for tracked series.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens the track database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to track database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// Add inserts a tracked series, replacing any existing record for the same
// URL. Tracking an already-tracked series restarts it from the new
// position.
func (s *Store) Add(ctx context.Context, series Series) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_series
		(url, series_id, name, part_spec, part_date, last_check_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			series_id = excluded.series_id,
			name = excluded.name,
			part_spec = excluded.part_spec,
			part_date = excluded.part_date,
			last_check_date = excluded.last_check_date
	`,
		series.URL,
		series.SeriesID,
		series.Name,
		series.PartSpec,
		formatTime(series.PartDate),
		formatTime(series.LastCheckDate),
	)
	if err != nil {
		return fmt.Errorf("add tracked series: %w", err)
	}

	return nil
}

// Get looks up a tracked series by its canonical URL.
func (s *Store) Get(ctx context.Context, url string) (Series, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT url, series_id, name, part_spec, part_date, last_check_date
		FROM tracked_series
		WHERE url = ?
	`, url)

	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Series{}, false, nil
	}
	if err != nil {
		return Series{}, false, fmt.Errorf("get tracked series: %w", err)
	}
	return series, true, nil
}

// List returns all tracked series ordered by name. The order is what the
// 1-based indexes shown by "track list" and accepted by Rm refer to.
func (s *Store) List(ctx context.Context) ([]Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, series_id, name, part_spec, part_date, last_check_date
		FROM tracked_series
		ORDER BY name COLLATE NOCASE, url
	`)
	if err != nil {
		return nil, fmt.Errorf("list tracked series: %w", err)
	}
	defer rows.Close()

	var list []Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("list tracked series: %w", err)
		}
		list = append(list, series)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tracked series: %w", err)
	}
	return list, nil
}

// Rm removes a tracked series addressed either by its canonical URL or by
// its 1-based position in List order. It returns the removed record;
// found is false when nothing matched (unknown URL or index out of range).
func (s *Store) Rm(ctx context.Context, ref string) (Series, bool, error) {
	url := ref
	if index, err := strconv.Atoi(ref); err == nil {
		list, err := s.List(ctx)
		if err != nil {
			return Series{}, false, err
		}
		if index < 1 || index > len(list) {
			return Series{}, false, nil
		}
		url = list[index-1].URL
	}

	series, found, err := s.Get(ctx, url)
	if err != nil || !found {
		return Series{}, found, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM tracked_series WHERE url = ?`, url); err != nil {
		return Series{}, false, fmt.Errorf("remove tracked series: %w", err)
	}
	return series, true, nil
}

// UpdateLastPart advances the recorded position after new parts were
// downloaded.
func (s *Store) UpdateLastPart(ctx context.Context, url, partSpec string, partDate time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tracked_series
		SET part_spec = ?, part_date = ?
		WHERE url = ?
	`, partSpec, formatTime(partDate), url)
	if err != nil {
		return fmt.Errorf("update last part: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update last part: %q is not tracked", url)
	}
	return nil
}

// RecordCheck stores the outcome of an update check: checkedAt becomes the
// new last_check_date unless zero, and a non-empty seriesID refreshes the
// stored id (entries imported from the legacy file start without one).
func (s *Store) RecordCheck(ctx context.Context, url, seriesID string, checkedAt time.Time) error {
	set := ""
	var args []any
	if !checkedAt.IsZero() {
		set = "last_check_date = ?"
		args = append(args, formatTime(checkedAt))
	}
	if seriesID != "" {
		if set != "" {
			set += ", "
		}
		set += "series_id = ?"
		args = append(args, seriesID)
	}
	if set == "" {
		return nil
	}
	args = append(args, url)

	if _, err := s.db.ExecContext(ctx, "UPDATE tracked_series SET "+set+" WHERE url = ?", args...); err != nil {
		return fmt.Errorf("record check: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeries(row rowScanner) (Series, error) {
	var series Series
	var partDate, lastCheck string
	if err := row.Scan(&series.URL, &series.SeriesID, &series.Name, &series.PartSpec, &partDate, &lastCheck); err != nil {
		return Series{}, err
	}

	var err error
	if series.PartDate, err = parseTime(partDate); err != nil {
		return Series{}, fmt.Errorf("bad part_date %q: %w", partDate, err)
	}
	if series.LastCheckDate, err = parseTime(lastCheck); err != nil {
		return Series{}, fmt.Errorf("bad last_check_date %q: %w", lastCheck, err)
	}
	return series, nil
}

// formatTime renders a date for storage; the zero time becomes the empty
// string (unknown).
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
