package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSeries_WiresBackReferencesAndNumbering(t *testing.T) {
	series := BuildSeries(SeriesSpec{
		Title: "A Tale of Two Moons",
		Volumes: []VolumeSpec{
			{PartCount: 2},
			{PartCount: 3},
		},
	})

	require.Len(t, series.Volumes, 2)
	require.Len(t, series.Volumes[0].Parts, 2)
	require.Len(t, series.Volumes[1].Parts, 3)

	assert.Equal(t, "a-tale-of-two-moons", series.Raw.Slug)

	for vi, volume := range series.Volumes {
		assert.Same(t, series, volume.Series)
		assert.Equal(t, vi+1, volume.Num)
		for pi, part := range volume.Parts {
			assert.Same(t, volume, part.Volume)
			assert.Equal(t, pi+1, part.NumInVolume)
		}
	}
}

func TestBuildSeries_DefaultTitles(t *testing.T) {
	series := BuildSeries(SeriesSpec{
		Title:   "Moonfall",
		Volumes: []VolumeSpec{{PartCount: 1}},
	})

	assert.Equal(t, "Moonfall: Volume 1", series.Volumes[0].Raw.Title)
	assert.Equal(t, "Moonfall: Volume 1 Part 1", series.Volumes[0].Parts[0].Raw.Title)
}

func TestBuildSeries_ExplicitSpecsWin(t *testing.T) {
	series := BuildSeries(SeriesSpec{
		Title: "Moonfall",
		Slug:  "custom-slug",
		Volumes: []VolumeSpec{
			{
				Title:      "Moonfall: Part One",
				TotalParts: 9,
				Parts:      []PartSpec{{Title: "Prologue"}},
			},
		},
	})

	assert.Equal(t, "custom-slug", series.Raw.Slug)
	assert.Equal(t, "Moonfall: Part One", series.Volumes[0].Raw.Title)
	assert.Equal(t, 9, series.Volumes[0].Raw.TotalParts)
	assert.Equal(t, "Prologue", series.Volumes[0].Parts[0].Raw.Title)
}

func TestBuildSeries_TotalPartsDefaultsToBuiltCount(t *testing.T) {
	series := BuildSeries(SeriesSpec{
		Title:   "Moonfall",
		Volumes: []VolumeSpec{{PartCount: 4}},
	})

	assert.Equal(t, 4, series.Volumes[0].Raw.TotalParts)
}

func TestSingleVolumeSeries(t *testing.T) {
	series := SingleVolumeSeries("Moonfall", 3)

	require.Len(t, series.Volumes, 1)
	assert.Len(t, series.Volumes[0].Parts, 3)
	assert.Equal(t, "Moonfall: Volume 1", series.Volumes[0].Raw.Title)
}

func TestSelectors(t *testing.T) {
	series := BuildSeries(SeriesSpec{
		Title:   "Moonfall",
		Volumes: []VolumeSpec{{PartCount: 2}, {PartCount: 1}},
	})

	assert.Same(t, series.Volumes[1], Volume(series, 2))
	assert.Same(t, series.Volumes[0].Parts[1], Part(series, 1, 2))

	assert.Panics(t, func() { Volume(series, 3) })
	assert.Panics(t, func() { Part(series, 1, 5) })
}
