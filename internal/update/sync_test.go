package update

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fascicle/internal/api"
	"fascicle/internal/core"
	"fascicle/internal/model"
	"fascicle/internal/testutil"
	"fascicle/internal/track"
	"fascicle/internal/weburl"
)

// callLog records follow and unfollow requests made against the account.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// syncServer adds the follows endpoints to the usual fixtures.
func syncServer(t *testing.T, aggs map[string]api.Aggregate, follows []model.RawSeries, calls *callLog) http.Handler {
	inner := fixtureServer(t, aggs)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/me/follows":
			writeJSON(t, w, map[string]any{
				"series":     follows,
				"pagination": map[string]any{"lastPage": true},
			})
		case strings.HasPrefix(r.URL.Path, "/me/follow/"):
			calls.record(r.Method + " " + strings.TrimPrefix(r.URL.Path, "/me/follow/"))
			w.WriteHeader(http.StatusOK)
		default:
			inner.ServeHTTP(w, r)
		}
	})
}

// ============================================================================
// Track record construction
// ============================================================================

func TestNewTrackedSeries(t *testing.T) {
	session := &core.Session{Now: testNow}
	series := testutil.BuildSeries(testutil.SeriesSpec{
		Title: "Alpha",
		Slug:  "alpha",
		Volumes: []testutil.VolumeSpec{
			{PartCount: 2},
		},
	})
	series.Raw.ID = "SER-A"
	testutil.Part(series, 1, 1).Raw.Launch = "2026-08-01T12:00:00Z"
	testutil.Part(series, 1, 2).Raw.Launch = "2026-08-10T12:00:00Z"

	record := NewTrackedSeries(session, series, false)
	assert.Equal(t, weburl.SeriesURL("alpha"), record.URL)
	assert.Equal(t, "SER-A", record.SeriesID)
	assert.Equal(t, "Alpha", record.Name)
	assert.Equal(t, "1.2", record.PartSpec)
	assert.True(t, record.PartDate.Equal(testutil.MustTime("2026-08-10T12:00:00Z")))
	assert.True(t, record.LastCheckDate.Equal(testNow))
	assert.False(t, record.FromBeginning())

	beginning := NewTrackedSeries(session, series, true)
	assert.True(t, beginning.FromBeginning())
	assert.Equal(t, track.TrackedFromBeginning, beginning.PartSpec)
	assert.True(t, beginning.PartDate.Equal(track.BeginningPartDate))
	assert.True(t, beginning.LastCheckDate.Equal(track.FarPastCheckDate))
}

// A series with nothing launched yet can only be tracked from the
// beginning.
func TestNewTrackedSeries_NoParts(t *testing.T) {
	session := &core.Session{Now: testNow}
	series := testutil.BuildSeries(testutil.SeriesSpec{Title: "Alpha", Slug: "alpha"})

	record := NewTrackedSeries(session, series, false)
	assert.True(t, record.FromBeginning())
	assert.True(t, record.LastCheckDate.Equal(track.FarPastCheckDate))
}

// ============================================================================
// Forward sync (account to store)
// ============================================================================

func TestSyncForward(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-A", Slug: "alpha", Title: "Alpha", Type: "NOVEL"},
		{ID: "SER-B", Slug: "beta", Title: "Beta", Type: "NOVEL"},
		{ID: "SER-G", Slug: "gamma", Title: "Gamma", Type: "COMIC"},
	}
	aggs := map[string]api.Aggregate{
		"alpha": fixtureAggregate("SER-A", "alpha", "Alpha", 2,
			"2026-08-01T12:00:00Z", "2026-08-10T12:00:00Z"),
	}
	calls := &callLog{}
	checker, _ := testChecker(t, syncServer(t, aggs, follows, calls))
	seedTracked(t, checker.Store, track.Series{
		URL:      weburl.SeriesURL("beta"),
		Name:     "Beta",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})
	seedTracked(t, checker.Store, track.Series{
		URL:      weburl.SeriesURL("delta"),
		Name:     "Delta",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})

	result, err := checker.SyncFollowed(context.Background(), SyncOptions{})
	require.NoError(t, err)

	require.Len(t, result.Added, 1, "comics and already tracked series are not added")
	added := result.Added[0]
	assert.Equal(t, weburl.SeriesURL("alpha"), added.URL)
	assert.Equal(t, "1.2", added.PartSpec)
	assert.Empty(t, result.Removed)
	assert.Empty(t, calls.all(), "forward sync never writes to the account")

	getTracked(t, checker.Store, weburl.SeriesURL("alpha"))
	getTracked(t, checker.Store, weburl.SeriesURL("delta")) // kept without Delete
}

func TestSyncForward_Delete(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-B", Slug: "beta", Title: "Beta", Type: "NOVEL"},
	}
	calls := &callLog{}
	checker, _ := testChecker(t, syncServer(t, nil, follows, calls))
	seedTracked(t, checker.Store, track.Series{
		URL:      weburl.SeriesURL("beta"),
		Name:     "Beta",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})
	seedTracked(t, checker.Store, track.Series{
		URL:      weburl.SeriesURL("delta"),
		Name:     "Delta",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})

	result, err := checker.SyncFollowed(context.Background(), SyncOptions{Delete: true})
	require.NoError(t, err)

	require.Len(t, result.Removed, 1)
	assert.Equal(t, "Delta", result.Removed[0].Name)

	_, found, err := checker.Store.Get(context.Background(), weburl.SeriesURL("delta"))
	require.NoError(t, err)
	assert.False(t, found)
	getTracked(t, checker.Store, weburl.SeriesURL("beta"))
}

func TestSyncForward_FromBeginning(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-A", Slug: "alpha", Title: "Alpha", Type: "NOVEL"},
	}
	aggs := map[string]api.Aggregate{
		"alpha": fixtureAggregate("SER-A", "alpha", "Alpha", 2,
			"2026-08-01T12:00:00Z", "2026-08-10T12:00:00Z"),
	}
	checker, _ := testChecker(t, syncServer(t, aggs, follows, &callLog{}))

	result, err := checker.SyncFollowed(context.Background(), SyncOptions{FromBeginning: true})
	require.NoError(t, err)

	require.Len(t, result.Added, 1)
	assert.True(t, result.Added[0].FromBeginning())
	assert.True(t, result.Added[0].LastCheckDate.Equal(track.FarPastCheckDate))
}

// ============================================================================
// Reverse sync (store to account)
// ============================================================================

func TestSyncReverse(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-G", Slug: "gamma", Title: "Gamma", Type: "NOVEL"},
	}
	// beta's record has no id, so its metadata is fetched to find one
	aggs := map[string]api.Aggregate{
		"beta": fixtureAggregate("SER-B", "beta", "Beta", 2,
			"2026-08-01T12:00:00Z"),
	}
	calls := &callLog{}
	checker, _ := testChecker(t, syncServer(t, aggs, follows, calls))
	seedTracked(t, checker.Store, track.Series{
		URL:      weburl.SeriesURL("alpha"),
		SeriesID: "SER-A",
		Name:     "Alpha",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})
	seedTracked(t, checker.Store, track.Series{
		URL:      weburl.SeriesURL("beta"),
		Name:     "Beta",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})

	result, err := checker.SyncFollowed(context.Background(), SyncOptions{Reverse: true, Delete: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta"}, result.Followed)
	assert.Equal(t, []string{"Gamma"}, result.Unfollowed)
	assert.Equal(t, []string{"PUT SER-A", "PUT SER-B", "DELETE SER-G"}, calls.all())

	// the local store is untouched by a reverse sync
	getTracked(t, checker.Store, weburl.SeriesURL("alpha"))
	getTracked(t, checker.Store, weburl.SeriesURL("beta"))
}

func TestSyncReverse_NoDelete(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-G", Slug: "gamma", Title: "Gamma", Type: "NOVEL"},
	}
	calls := &callLog{}
	checker, _ := testChecker(t, syncServer(t, nil, follows, calls))

	result, err := checker.SyncFollowed(context.Background(), SyncOptions{Reverse: true})
	require.NoError(t, err)

	assert.Empty(t, result.Unfollowed)
	assert.Empty(t, calls.all())
}

// ============================================================================
// Sync-driven updates
// ============================================================================

// With Sync, only the newly followed series are updated, from the
// beginning; the already tracked ones are not even checked.
func TestUpdateAll_Sync(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-O", Slug: "omega", Title: "Omega", Type: "NOVEL"},
		{ID: "SER-N", Slug: "nu", Title: "Nu", Type: "NOVEL"},
	}
	aggs := map[string]api.Aggregate{
		"nu": fixtureAggregate("SER-N", "nu", "Nu", 2,
			"2026-08-01T12:00:00Z", "2026-08-10T12:00:00Z"),
	}
	checker, log := testChecker(t, syncServer(t, aggs, follows, &callLog{}))
	omegaCheck := testutil.MustTime("2026-08-15T12:00:00Z")
	seedTracked(t, checker.Store, track.Series{
		URL:           weburl.SeriesURL("omega"),
		SeriesID:      "SER-O",
		Name:          "Omega",
		PartSpec:      "1.1",
		PartDate:      testutil.MustTime("2026-08-01T12:00:00Z"),
		LastCheckDate: omegaCheck,
	})

	results, err := checker.UpdateAll(context.Background(), Options{Sync: true})
	require.NoError(t, err)
	require.Len(t, results, 1, "only the newly synced series is considered")

	assert.True(t, results[0].Updated)
	assert.Equal(t, []string{"Nu 1.1 to 1.2"}, log.sorted(),
		"a synced series is read from the beginning")

	nu := getTracked(t, checker.Store, weburl.SeriesURL("nu"))
	assert.Equal(t, "1.2", nu.PartSpec)
	assert.True(t, nu.LastCheckDate.Equal(testNow))

	omega := getTracked(t, checker.Store, weburl.SeriesURL("omega"))
	assert.True(t, omega.LastCheckDate.Equal(omegaCheck), "tracked series are left alone")
}

func TestUpdateOne_SyncRestricted(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-O", Slug: "omega", Title: "Omega", Type: "NOVEL"},
	}
	checker, _ := testChecker(t, syncServer(t, nil, follows, &callLog{}))
	url := weburl.SeriesURL("omega")
	seedTracked(t, checker.Store, track.Series{
		URL:      url,
		SeriesID: "SER-O",
		Name:     "Omega",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})

	_, err := checker.UpdateOne(context.Background(), url, Options{Sync: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not added by the sync")
}

// Managed mode makes the account the source of truth: new follows are
// tracked from the beginning, unfollowed series are pruned, and then
// everything left is updated.
func TestUpdateAll_Managed(t *testing.T) {
	follows := []model.RawSeries{
		{ID: "SER-N", Slug: "nu", Title: "Nu", Type: "NOVEL"},
	}
	aggs := map[string]api.Aggregate{
		"nu": fixtureAggregate("SER-N", "nu", "Nu", 2,
			"2026-08-01T12:00:00Z", "2026-08-10T12:00:00Z"),
	}
	checker, log := testChecker(t, syncServer(t, aggs, follows, &callLog{}))
	seedTracked(t, checker.Store, track.Series{
		URL:      weburl.SeriesURL("omega"),
		SeriesID: "SER-O",
		Name:     "Omega",
		PartSpec: "1.1",
		PartDate: testutil.MustTime("2026-08-01T12:00:00Z"),
	})

	results, err := checker.UpdateAll(context.Background(), Options{Managed: true})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].Updated)
	assert.Equal(t, []string{"Nu 1.1 to 1.2"}, log.sorted())

	_, found, err := checker.Store.Get(context.Background(), weburl.SeriesURL("omega"))
	require.NoError(t, err)
	assert.False(t, found, "unfollowed series are pruned")

	nu := getTracked(t, checker.Store, weburl.SeriesURL("nu"))
	assert.Equal(t, "1.2", nu.PartSpec)
	assert.True(t, nu.LastCheckDate.Equal(testNow))
}
