// Package update regenerates EPUBs for tracked series with new parts.
// A run checks every tracked series (or a single addressed one), finds
// the parts launched after the recorded position, hands the span that
// is still downloadable to the generation pipeline, and advances the
// track record.
package update

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fascicle/internal/core"
	"fascicle/internal/epub"
	"fascicle/internal/model"
	"fascicle/internal/namegen"
	"fascicle/internal/partspec"
	"fascicle/internal/track"
	"fascicle/internal/weburl"
)

// checkConcurrency bounds how many series are checked at once.
const checkConcurrency = 4

// Options select what an update run covers beyond the plain new parts.
type Options struct {
	// Sync tracks the account's newly followed series first and updates
	// only those, from the beginning of each.
	Sync bool
	// Beginning records newly synced series as starting from the first
	// part instead of the current position.
	Beginning bool
	// Managed treats the account's follows as the source of truth: sync
	// from the beginning, prune unfollowed series, then update everything.
	Managed bool
	// WholeVolume regenerates the entire containing volume whenever one
	// of its parts is new.
	WholeVolume bool
	// WholeFinal regenerates the entire volume when the update includes
	// its final part.
	WholeFinal bool
	// UseEvents consults the publishing events feed first and skips the
	// series it does not name.
	UseEvents bool
}

// Result is the outcome of checking one tracked series.
type Result struct {
	Tracked track.Series
	Series  *model.Series // nil when the metadata was never fetched
	Updated bool          // at least one EPUB was generated
	Skipped bool          // ruled out by the events feed without a metadata fetch
	Expired bool          // every new part had expired; the position advances anyway
	Paths   []string      // generated EPUB files
	Err     error

	// The events feed announced a part the metadata does not show yet.
	// The check date stays put so the next run looks again.
	keepCheckDate bool
}

// Summary tallies one update run.
type Summary struct {
	Total   int
	Updated int
	Failed  int
	Skipped int
}

// Summarize counts the outcomes of a run.
func Summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}
	for _, result := range results {
		switch {
		case result.Err != nil:
			summary.Failed++
		case result.Updated:
			summary.Updated++
		case result.Skipped:
			summary.Skipped++
		}
	}
	return summary
}

// Checker drives update runs against the track store.
type Checker struct {
	Session *core.Session
	Store   *track.Store
	Names   *namegen.Generator
	EPUB    epub.Options
}

// UpdateOne checks the single tracked series addressed by rawURL. The
// URL may point at any page of the series; it is resolved to the
// canonical series URL the track store is keyed by.
func (c *Checker) UpdateOne(ctx context.Context, rawURL string, opts Options) (Result, error) {
	res, err := weburl.Parse(rawURL)
	if err != nil {
		return Result{}, err
	}
	slug, err := c.Session.ResolveSeries(ctx, res)
	if err != nil {
		return Result{}, err
	}
	canonical := weburl.SeriesURL(slug)

	var restrict map[string]bool
	if opts.Sync {
		synced, err := c.SyncFollowed(ctx, SyncOptions{FromBeginning: opts.Beginning})
		if err != nil {
			return Result{}, err
		}
		restrict = addedURLs(synced)
	}

	tracked, found, err := c.Store.Get(ctx, canonical)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{}, fmt.Errorf("series %s is not tracked (track it first with \"fascicle track add\")", canonical)
	}
	if restrict != nil && !restrict[canonical] {
		return Result{}, fmt.Errorf("series %s was not added by the sync (run update without --sync)", canonical)
	}

	announced := false
	if opts.UseEvents && !opts.Sync && canUseEvents(tracked) {
		if scan := c.scanEvents(ctx, tracked.LastCheckDate); scan != nil {
			if !scan.needsCheck(tracked) {
				result := Result{Tracked: tracked, Skipped: true}
				return result, c.recordOutcome(ctx, result)
			}
			announced = true
		}
	}

	result := c.checkSeries(ctx, tracked, opts, announced)
	if result.Err != nil {
		return result, result.Err
	}
	return result, c.recordOutcome(ctx, result)
}

// UpdateAll checks every tracked series and generates EPUBs for the new
// parts. Per-series failures land in the results and do not stop the
// run.
func (c *Checker) UpdateAll(ctx context.Context, opts Options) ([]Result, error) {
	var restrict map[string]bool
	switch {
	case opts.Managed:
		if _, err := c.SyncFollowed(ctx, SyncOptions{FromBeginning: true, Delete: true}); err != nil {
			return nil, err
		}
	case opts.Sync:
		synced, err := c.SyncFollowed(ctx, SyncOptions{FromBeginning: opts.Beginning})
		if err != nil {
			return nil, err
		}
		restrict = addedURLs(synced)
	}

	list, err := c.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	if restrict != nil {
		kept := list[:0]
		for _, tracked := range list {
			if restrict[tracked.URL] {
				kept = append(kept, tracked)
			}
		}
		list = kept
	}
	if len(list) == 0 {
		return nil, nil
	}

	var scan *eventScan
	if opts.UseEvents && !opts.Sync && !opts.Managed {
		if since, ok := oldestCheckDate(list); ok {
			scan = c.scanEvents(ctx, since)
		}
	}

	results := make([]Result, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)
	for i, tracked := range list {
		g.Go(func() error {
			announced := false
			if scan != nil && canUseEvents(tracked) {
				if !scan.needsCheck(tracked) {
					slog.Debug("events feed shows no new parts", "series", tracked.Name)
					results[i] = Result{Tracked: tracked, Skipped: true}
					return nil
				}
				announced = true
			}
			results[i] = c.checkSeries(gctx, tracked, opts, announced)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, result := range results {
		if result.Err != nil {
			slog.Error("series update failed", "series", result.Tracked.Name, "error", result.Err)
			continue
		}
		if err := c.recordOutcome(ctx, result); err != nil {
			return results, err
		}
	}
	return results, nil
}

// checkSeries fetches the series metadata and generates EPUBs for the
// parts launched after the tracked position. announced means the events
// feed expects new parts.
func (c *Checker) checkSeries(ctx context.Context, tracked track.Series, opts Options, announced bool) Result {
	result := Result{Tracked: tracked}

	res, err := weburl.Parse(tracked.URL)
	if err != nil {
		result.Err = err
		return result
	}
	series, err := c.Session.FetchMeta(ctx, res.Slug)
	if err != nil {
		result.Err = err
		return result
	}
	result.Series = series

	newParts := newPartsSince(series, tracked, opts.Sync)
	if len(newParts) == 0 {
		slog.Debug("no new parts", "series", series.Raw.Title)
		result.keepCheckDate = announced
		return result
	}

	available := make([]*model.Part, 0, len(newParts))
	for _, part := range newParts {
		if c.Session.Available(part) {
			available = append(available, part)
		}
	}
	if len(available) == 0 {
		slog.Warn("all new parts have expired", "series", series.Raw.Title)
		result.Expired = true
		result.keepCheckDate = announced
		return result
	}
	if len(available) < len(newParts) {
		slog.Warn("some new parts have expired", "series", series.Raw.Title)
	}

	slog.Info("updating series", "series", series.Raw.Title, "parts", len(available))
	paths, err := c.generate(ctx, series, available, opts)
	if err != nil {
		result.Err = err
		return result
	}
	result.Paths = paths
	result.Updated = true
	return result
}

// newPartsSince selects the parts launched strictly after the tracked
// position. fromStart, or a record tracking from the beginning, selects
// everything.
func newPartsSince(series *model.Series, tracked track.Series, fromStart bool) []*model.Part {
	all := core.AllParts(series)
	if fromStart || tracked.FromBeginning() {
		return all
	}

	cutoff := tracked.PartDate
	if cutoff.IsZero() {
		// records imported from the legacy file carry only the part
		// spec; use that part's launch date
		cutoff = trackedPartLaunch(series, tracked.PartSpec)
	}

	var fresh []*model.Part
	for _, part := range all {
		if part.LaunchTime().After(cutoff) {
			fresh = append(fresh, part)
		}
	}
	return fresh
}

// trackedPartLaunch finds the launch date of the part a relative spec
// points at. Zero when the spec no longer matches the catalog, which
// makes every launched part count as new.
func trackedPartLaunch(series *model.Series, text string) time.Time {
	sp, err := partspec.Parse(text)
	if err != nil {
		return time.Time{}
	}
	sel := partspec.Select(series, sp)
	if sel.IsEmpty() {
		return time.Time{}
	}
	return sel.Parts[len(sel.Parts)-1].LaunchTime()
}

// generate writes the EPUBs for the new parts, widened per the whole
// volume options.
func (c *Checker) generate(ctx context.Context, series *model.Series, newParts []*model.Part, opts Options) ([]string, error) {
	parts := newParts
	if opts.WholeVolume {
		parts = c.expandToVolumes(series, newParts)
	}

	paths, err := c.Session.GenerateBooks(ctx, series, partspec.SelectionOf(parts), c.Names, c.EPUB)
	if err != nil {
		return nil, err
	}

	if !opts.WholeVolume && opts.WholeFinal {
		more, err := c.finalVolumes(ctx, series, newParts)
		if err != nil {
			return nil, err
		}
		paths = append(paths, more...)
	}
	return paths, nil
}

// expandToVolumes widens the span to every available part of the
// volumes the new parts touch.
func (c *Checker) expandToVolumes(series *model.Series, newParts []*model.Part) []*model.Part {
	touched := make(map[*model.Volume]bool, len(newParts))
	for _, part := range newParts {
		touched[part.Volume] = true
	}

	var parts []*model.Part
	for _, volume := range series.Volumes {
		if !touched[volume] {
			continue
		}
		for _, part := range volume.Parts {
			if c.Session.Available(part) {
				parts = append(parts, part)
			}
		}
	}
	return parts
}

// finalVolumes writes a whole-volume EPUB for every new part that closes
// its volume, unless the span already covered the volume entirely. When
// the final part is downloadable the rest of the volume is too, so the
// parts are not filtered again.
func (c *Checker) finalVolumes(ctx context.Context, series *model.Series, newParts []*model.Part) ([]string, error) {
	newSet := make(map[*model.Part]bool, len(newParts))
	for _, part := range newParts {
		newSet[part] = true
	}

	var paths []string
	for _, part := range newParts {
		if !closesVolume(part) {
			continue
		}
		if covers(newSet, part.Volume) {
			// the update itself produced the complete volume
			continue
		}

		slog.Info("volume complete, generating whole volume", "volume", part.Volume.Raw.Title)
		more, err := c.Session.GenerateBooks(ctx, series, partspec.SelectionOf(part.Volume.Parts), c.Names, c.EPUB)
		if err != nil {
			return nil, err
		}
		paths = append(paths, more...)
	}
	return paths, nil
}

// closesVolume reports whether the part is the last one of its volume's
// announced total.
func closesVolume(part *model.Part) bool {
	total := part.Volume.Raw.TotalParts
	return total > 0 && part.NumInVolume == total
}

func covers(parts map[*model.Part]bool, volume *model.Volume) bool {
	for _, part := range volume.Parts {
		if !parts[part] {
			return false
		}
	}
	return len(volume.Parts) > 0
}

// recordOutcome advances the track record after a check: the check date
// moves unless held back, the position moves when parts were downloaded
// or written off as expired.
func (c *Checker) recordOutcome(ctx context.Context, result Result) error {
	if result.Err != nil {
		return nil
	}

	seriesID := ""
	if result.Series != nil {
		seriesID = result.Series.Raw.ID
	}
	checkedAt := c.Session.Now
	if result.keepCheckDate {
		checkedAt = time.Time{}
	}
	if err := c.Store.RecordCheck(ctx, result.Tracked.URL, seriesID, checkedAt); err != nil {
		return err
	}

	if !result.Updated && !result.Expired {
		return nil
	}
	spec, date := core.LastPartSpecAndDate(result.Series)
	if spec == "" {
		return nil
	}
	return c.Store.UpdateLastPart(ctx, result.Tracked.URL, spec, date)
}

func addedURLs(synced SyncResult) map[string]bool {
	urls := make(map[string]bool, len(synced.Added))
	for _, added := range synced.Added {
		urls[added.URL] = true
	}
	return urls
}
