package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fascicle/internal/api"
	"fascicle/internal/model"
	"fascicle/internal/testutil"
	"fascicle/internal/track"
	"fascicle/internal/weburl"
)

func TestTrackAddCommand(t *testing.T) {
	testHome(t)
	testCredentials(t)
	server := kisaragiServer(t, map[string]api.Aggregate{
		"some-series": fixtureAggregate("SER-S", "some-series", "Some Series", 2,
			"2026-08-01T12:00:00Z", "2026-08-10T12:00:00Z"),
	}, nil)

	buf := &bytes.Buffer{}
	opts := &RootOptions{Out: buf, Err: io.Discard, APIBase: server.URL}

	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"add", weburl.SeriesURL("some-series")})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Login with email 'reader@example.com'...")
	assert.Contains(t, out, "The series 'Some Series' is now tracked, starting after part 1.2 [Aug 10, 2026]")

	list := trackedList(t)
	require.Len(t, list, 1)
	assert.Equal(t, weburl.SeriesURL("some-series"), list[0].URL)
	assert.Equal(t, "SER-S", list[0].SeriesID)
	assert.Equal(t, "1.2", list[0].PartSpec)

	// adding again is a no-op
	buf.Reset()
	cmd = NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"add", weburl.SeriesURL("some-series")})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "The series 'Some Series' is already tracked!")
	assert.Len(t, trackedList(t), 1)
}

func TestTrackAddCommandFromBeginning(t *testing.T) {
	testHome(t)
	testCredentials(t)
	server := kisaragiServer(t, map[string]api.Aggregate{
		"some-series": fixtureAggregate("SER-S", "some-series", "Some Series", 2,
			"2026-08-01T12:00:00Z", "2026-08-10T12:00:00Z"),
	}, nil)

	buf := &bytes.Buffer{}
	opts := &RootOptions{Out: buf, Err: io.Discard, APIBase: server.URL}

	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"add", "--beginning", weburl.SeriesURL("some-series")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "The series 'Some Series' is now tracked, starting from the beginning")

	list := trackedList(t)
	require.Len(t, list, 1)
	assert.True(t, list[0].FromBeginning())
}

func TestTrackRmCommandByIndex(t *testing.T) {
	testHome(t)
	seedTracked(t, track.Series{URL: weburl.SeriesURL("alpha"), Name: "Alpha", PartSpec: "1.2"})
	seedTracked(t, track.Series{URL: weburl.SeriesURL("beta"), Name: "Beta", PartSpec: "2.1"})

	buf := &bytes.Buffer{}
	opts := &RootOptions{Out: buf, Err: io.Discard}

	// indexes follow the list order, no login needed
	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"rm", "1"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "The series 'Alpha' is no longer tracked")
	list := trackedList(t)
	require.Len(t, list, 1)
	assert.Equal(t, "Beta", list[0].Name)
}

func TestTrackRmCommandByURL(t *testing.T) {
	testHome(t)
	seedTracked(t, track.Series{URL: weburl.SeriesURL("alpha"), Name: "Alpha", PartSpec: "1.2"})

	buf := &bytes.Buffer{}
	opts := &RootOptions{Out: buf, Err: io.Discard}

	// a series URL resolves offline, even with a volume fragment
	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"rm", weburl.VolumeURL("alpha", 2)})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "The series 'Alpha' is no longer tracked")
	assert.Empty(t, trackedList(t))
}

func TestTrackRmCommandUnknown(t *testing.T) {
	testHome(t)
	seedTracked(t, track.Series{URL: weburl.SeriesURL("alpha"), Name: "Alpha", PartSpec: "1.2"})

	opts := &RootOptions{Out: io.Discard, Err: io.Discard}

	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"rm", "4"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match a tracked series")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrackListCommand(t *testing.T) {
	testHome(t)

	buf := &bytes.Buffer{}
	opts := &RootOptions{Out: buf, Err: io.Discard}

	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No series is tracked.")

	seedTracked(t, track.Series{URL: weburl.SeriesURL("alpha"), Name: "Alpha", PartSpec: "1.2",
		PartDate: testutil.MustTime("2026-08-10T12:00:00Z")})
	seedTracked(t, track.Series{URL: weburl.SeriesURL("beta"), Name: "Beta",
		PartSpec: track.TrackedFromBeginning, PartDate: track.BeginningPartDate})

	buf.Reset()
	cmd = NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "2 series are tracked:")
	assert.Contains(t, out, "[1] Alpha")
	assert.Contains(t, out, "[2] Beta")
}

func TestTrackListCommandDetails(t *testing.T) {
	testHome(t)
	seedTracked(t, track.Series{URL: weburl.SeriesURL("alpha"), Name: "Alpha", PartSpec: "1.2",
		PartDate: testutil.MustTime("2026-08-10T12:00:00Z")})
	seedTracked(t, track.Series{URL: weburl.SeriesURL("beta"), Name: "Beta",
		PartSpec: track.TrackedFromBeginning, PartDate: track.BeginningPartDate})

	buf := &bytes.Buffer{}
	opts := &RootOptions{Out: buf, Err: io.Discard}

	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"list", "--details"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "2 series are tracked:")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "1.2 [Aug 10, 2026]")
	assert.Contains(t, out, "No part released")
	assert.Contains(t, out, weburl.SeriesURL("beta"))
}

func TestTrackSyncCommand(t *testing.T) {
	testHome(t)
	testCredentials(t)
	server := kisaragiServer(t, map[string]api.Aggregate{
		"nu": fixtureAggregate("SER-N", "nu", "Nu", 2,
			"2026-08-01T12:00:00Z", "2026-08-10T12:00:00Z"),
	}, []model.RawSeries{
		{ID: "SER-N", Slug: "nu", Title: "Nu", Type: "NOVEL"},
	})

	buf := &bytes.Buffer{}
	opts := &RootOptions{Out: buf, Err: io.Discard, APIBase: server.URL}

	cmd := NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"sync"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Fetch followed series from Kisaragi Press...")
	assert.Contains(t, out, "The series 'Nu' is now tracked, starting after part 1.2 [Aug 10, 2026]")

	list := trackedList(t)
	require.Len(t, list, 1)
	assert.Equal(t, weburl.SeriesURL("nu"), list[0].URL)

	// second sync finds nothing to do
	buf.Reset()
	cmd = NewTrackCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"sync"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Everything is already in sync!")
}
