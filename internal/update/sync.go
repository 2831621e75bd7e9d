package update

import (
	"context"
	"log/slog"

	"fascicle/internal/core"
	"fascicle/internal/model"
	"fascicle/internal/track"
	"fascicle/internal/weburl"
)

// SyncOptions control one account synchronization pass.
type SyncOptions struct {
	// Reverse makes the account follow the locally tracked series
	// instead of tracking the followed ones.
	Reverse bool
	// Delete prunes the side being written: tracked series no longer
	// followed (forward), or followed series no longer tracked (reverse).
	Delete bool
	// FromBeginning records newly tracked series as starting from the
	// first part.
	FromBeginning bool
}

// SyncResult lists what a synchronization changed.
type SyncResult struct {
	Added      []track.Series // newly tracked locally
	Removed    []track.Series // pruned from the local store
	Followed   []string       // titles newly followed on the account
	Unfollowed []string       // titles unfollowed on the account
}

// SyncFollowed reconciles the track store with the series followed on
// the account, in the direction given by opts.
func (c *Checker) SyncFollowed(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	follows, err := c.Session.API.FollowedSeries(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	// comics are followed on the same account but have no prepub text
	follows = novelsOnly(follows)

	list, err := c.Store.List(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	if opts.Reverse {
		return c.syncReverse(ctx, follows, list, opts)
	}
	return c.syncForward(ctx, follows, list, opts)
}

// syncForward makes the track store match the account: followed series
// become tracked, and with Delete the no-longer-followed entries go.
func (c *Checker) syncForward(ctx context.Context, follows []model.RawSeries, list []track.Series, opts SyncOptions) (SyncResult, error) {
	var result SyncResult

	tracked := make(map[string]bool, len(list))
	for _, entry := range list {
		tracked[entry.URL] = true
	}

	followed := make(map[string]bool, len(follows))
	for _, raw := range follows {
		seriesURL := weburl.SeriesURL(raw.Slug)
		followed[seriesURL] = true
		if tracked[seriesURL] {
			continue
		}

		series, err := c.Session.FetchMeta(ctx, raw.Slug)
		if err != nil {
			return result, err
		}
		record := NewTrackedSeries(c.Session, series, opts.FromBeginning)
		if err := c.Store.Add(ctx, record); err != nil {
			return result, err
		}
		slog.Debug("followed series now tracked", "series", record.Name)
		result.Added = append(result.Added, record)
	}

	if opts.Delete {
		for _, entry := range list {
			if followed[entry.URL] {
				continue
			}
			if _, _, err := c.Store.Rm(ctx, entry.URL); err != nil {
				return result, err
			}
			slog.Debug("series no longer followed, untracked", "series", entry.Name)
			result.Removed = append(result.Removed, entry)
		}
	}
	return result, nil
}

// syncReverse makes the account match the track store: tracked series
// get followed, and with Delete the untracked follows are dropped.
func (c *Checker) syncReverse(ctx context.Context, follows []model.RawSeries, list []track.Series, opts SyncOptions) (SyncResult, error) {
	var result SyncResult

	followed := make(map[string]bool, len(follows))
	for _, raw := range follows {
		followed[weburl.SeriesURL(raw.Slug)] = true
	}

	tracked := make(map[string]bool, len(list))
	for _, entry := range list {
		tracked[entry.URL] = true
		if followed[entry.URL] {
			continue
		}

		seriesID := entry.SeriesID
		if seriesID == "" {
			// records imported from the legacy file carry no id
			res, err := weburl.Parse(entry.URL)
			if err != nil {
				return result, err
			}
			series, err := c.Session.FetchMeta(ctx, res.Slug)
			if err != nil {
				return result, err
			}
			seriesID = series.Raw.ID
		}
		if err := c.Session.API.Follow(ctx, seriesID); err != nil {
			return result, err
		}
		slog.Debug("tracked series now followed", "series", entry.Name)
		result.Followed = append(result.Followed, entry.Name)
	}

	if opts.Delete {
		for _, raw := range follows {
			if tracked[weburl.SeriesURL(raw.Slug)] {
				continue
			}
			if err := c.Session.API.Unfollow(ctx, raw.ID); err != nil {
				return result, err
			}
			slog.Debug("untracked series unfollowed", "series", raw.Title)
			result.Unfollowed = append(result.Unfollowed, raw.Title)
		}
	}
	return result, nil
}

// NewTrackedSeries builds the track record for a series at its current
// position: after the latest launched part, or from the beginning when
// nothing has launched yet or fromBeginning says so.
func NewTrackedSeries(session *core.Session, series *model.Series, fromBeginning bool) track.Series {
	record := track.Series{
		URL:      weburl.SeriesURL(series.Raw.Slug),
		SeriesID: series.Raw.ID,
		Name:     series.Raw.Title,
	}

	spec, date := core.LastPartSpecAndDate(series)
	if fromBeginning || spec == "" {
		record.PartSpec = track.TrackedFromBeginning
		record.PartDate = track.BeginningPartDate
		// far in the past so the first update always does a full check,
		// whatever the events feed says
		record.LastCheckDate = track.FarPastCheckDate
		return record
	}

	record.PartSpec = spec
	record.PartDate = date
	record.LastCheckDate = session.Now
	return record
}

// novelsOnly drops followed comics.
func novelsOnly(follows []model.RawSeries) []model.RawSeries {
	kept := follows[:0]
	for _, raw := range follows {
		if raw.Type == "" || raw.Type == "NOVEL" {
			kept = append(kept, raw)
		}
	}
	return kept
}
