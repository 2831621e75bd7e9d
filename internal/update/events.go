package update

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fascicle/internal/api"
	"fascicle/internal/track"
)

// eventsLimit caps one read of the events feed. Two to three weeks of
// publications, less when updating often.
const eventsLimit = 200

// prepubPrefix marks the feed entries that announce a prepub part
// launch.
const prepubPrefix = "Prepub Publishing"

// eventScan is the digest of one events-feed read, shared by every
// series of a run.
type eventScan struct {
	events    []api.Event
	truncated bool      // the feed held more events than one read returns
	oldest    time.Time // launch of the oldest event read
}

// scanEvents reads the events feed from since up to now. Nil means the
// feed could not be read and every series needs a full check.
func (c *Checker) scanEvents(ctx context.Context, since time.Time) *eventScan {
	page, err := c.Session.API.Events(ctx, api.EventsParams{
		StartDate: since,
		EndDate:   c.Session.Now,
		Limit:     eventsLimit,
	})
	if err != nil {
		slog.Warn("events feed unavailable, checking every series", "error", err)
		return nil
	}

	scan := &eventScan{events: page.Events, truncated: page.HasMore, oldest: c.Session.Now}
	if len(page.Events) > 0 {
		// the feed is ordered by launch, newest first
		scan.oldest = page.Events[len(page.Events)-1].Launch
	}
	return scan
}

// needsCheck reports whether the tracked series may have new parts
// according to the feed.
func (s *eventScan) needsCheck(tracked track.Series) bool {
	if len(s.events) == 0 {
		return false
	}
	// a truncated feed that does not reach back to the series' last
	// check rules nothing out
	if s.truncated && !tracked.LastCheckDate.After(s.oldest) {
		return true
	}

	for _, event := range s.events {
		if !strings.HasPrefix(event.Details, prepubPrefix) {
			continue
		}
		if event.Serie.ID != tracked.SeriesID {
			continue
		}
		// a launch at the exact check instant was covered by that check;
		// newest first, so nothing newer follows
		if !event.Launch.After(tracked.LastCheckDate) {
			break
		}
		return true
	}
	return false
}

// canUseEvents reports whether the record carries enough to interpret
// the feed: a series id and a previous check date. Records imported from
// the legacy file lack the id until their first full check.
func canUseEvents(tracked track.Series) bool {
	return tracked.SeriesID != "" && !tracked.LastCheckDate.IsZero()
}

// oldestCheckDate finds the oldest last-check date among the series the
// events feed can cover.
func oldestCheckDate(list []track.Series) (time.Time, bool) {
	var oldest time.Time
	found := false
	for _, tracked := range list {
		if !canUseEvents(tracked) {
			continue
		}
		if !found || tracked.LastCheckDate.Before(oldest) {
			oldest = tracked.LastCheckDate
			found = true
		}
	}
	return oldest, found
}
