package namegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fascicle/internal/model"
	"fascicle/internal/testutil"
)

func volumeWithTitle(seriesTitle, volumeTitle string) *model.Volume {
	series := testutil.BuildSeries(testutil.SeriesSpec{
		Title:   seriesTitle,
		Volumes: []testutil.VolumeSpec{{Title: volumeTitle, PartCount: 1}},
	})
	return testutil.Volume(series, 1)
}

func TestVToSeries_ExpandsVolume(t *testing.T) {
	volume := volumeWithTitle("Moonfall", "Moonfall: Volume 1")
	l := NewList(newVolumeComponent(volume))

	require.NoError(t, vToSeries(l, nil))

	require.Equal(t, 2, l.Len())
	assert.Same(t, volume.Series, l.At(0).Series)
	assert.Equal(t, TagVolNum, l.At(1).Tag)
	assert.Equal(t, Compound{{Value: "1", Kind: KindInternal}}, l.At(1).VolNums[0])
}

// =============================================================================
// v_split_volume Tests
// =============================================================================

func TestVSplitVolume_NumericLabel(t *testing.T) {
	volume := volumeWithTitle("Moonfall", "Moonfall: Volume 2")
	l := NewList(newVolumeComponent(volume))

	require.NoError(t, vSplitVolume(l, nil))

	require.Equal(t, 2, l.Len())
	assert.Same(t, volume.Series, l.At(0).Series)
	vn := l.At(1)
	assert.Equal(t, Compound{{Value: "2", Kind: KindVolumeWord}}, vn.VolNums[0])
	assert.Equal(t, []*model.Volume{volume}, vn.VolNumsBase)
}

func TestVSplitVolume_WordOrdinalLabel(t *testing.T) {
	volume := volumeWithTitle("Moonfall", "Moonfall: Part Five")
	l := NewList(newVolumeComponent(volume))

	require.NoError(t, vSplitVolume(l, nil))

	vn := l.At(1)
	assert.Equal(t, Compound{{Value: "Five", Kind: KindPartWord}}, vn.VolNums[0])
}

func TestVSplitVolume_CompoundLabelKeepsTitleOrder(t *testing.T) {
	volume := volumeWithTitle("Moonfall", "Moonfall: Part Five Volume 2")
	l := NewList(newVolumeComponent(volume))

	require.NoError(t, vSplitVolume(l, nil))

	vn := l.At(1)
	assert.Equal(t, Compound{
		{Value: "Five", Kind: KindPartWord},
		{Value: "2", Kind: KindVolumeWord},
	}, vn.VolNums[0])
}

func TestVSplitVolume_SpecialLabel(t *testing.T) {
	volume := volumeWithTitle("Moonfall", "Moonfall: Short Stories")
	l := NewList(newVolumeComponent(volume))

	require.NoError(t, vSplitVolume(l, nil))

	vn := l.At(1)
	assert.Equal(t, Compound{{Value: "Short Stories", Kind: KindSpecial}}, vn.VolNums[0])
}

func TestVSplitVolume_TitleNotExtendingSeriesIsLeftAlone(t *testing.T) {
	for _, title := range []string{"Moonfall", "Something Else Entirely"} {
		volume := volumeWithTitle("Moonfall", title)
		l := NewList(newVolumeComponent(volume))

		require.NoError(t, vSplitVolume(l, nil))

		require.Equal(t, 1, l.Len())
		assert.Equal(t, TagVolume, l.At(0).Tag)
	}
}

func TestVTitle_ReplacesWithRawTitle(t *testing.T) {
	volume := volumeWithTitle("Moonfall", "Moonfall: Volume 3")
	l := NewList(newVolumeComponent(volume))

	require.NoError(t, vTitle(l, nil))

	require.Equal(t, 1, l.Len())
	assert.Equal(t, "Moonfall: Volume 3", l.At(0).Str)
}

// =============================================================================
// Volume Number Rule Tests
// =============================================================================

func threeVolumeNums(t *testing.T) *List {
	t.Helper()
	series := testutil.BuildSeries(testutil.SeriesSpec{
		Title:   "Moonfall",
		Volumes: []testutil.VolumeSpec{{PartCount: 1}, {PartCount: 1}, {PartCount: 1}},
	})
	return NewList(newVolNumComponent(series.Volumes))
}

func TestVnRm(t *testing.T) {
	l := threeVolumeNums(t)
	require.NoError(t, vnRm(l, nil))
	assert.Equal(t, 0, l.Len())
}

func TestVnRmIfPn(t *testing.T) {
	series := testutil.SingleVolumeSeries("Moonfall", 2)
	volume := testutil.Volume(series, 1)

	l := NewList(
		newVolNumComponent([]*model.Volume{volume}),
		newPartNumComponent(volume.Parts),
	)
	require.NoError(t, vnRmIfPn(l, nil))
	assert.Equal(t, -1, l.Find(TagVolNum))

	// Without a part number component the volume number stays
	l = NewList(newVolNumComponent([]*model.Volume{volume}))
	require.NoError(t, vnRmIfPn(l, nil))
	assert.NotEqual(t, -1, l.Find(TagVolNum))
}

func TestVnNumber_TranslatesEnglishWords(t *testing.T) {
	c := &Component{Tag: TagVolNum, VolNums: []Compound{
		{{Value: "Five", Kind: KindPartWord}},
		{{Value: "twenty", Kind: KindPartWord}},
		{{Value: "7", Kind: KindVolumeWord}},
		{{Value: "Short Stories", Kind: KindSpecial}},
	}}
	l := NewList(c)

	require.NoError(t, vnNumber(l, nil))

	assert.Equal(t, "5", c.VolNums[0][0].Value)
	assert.Equal(t, "20", c.VolNums[1][0].Value)
	assert.Equal(t, "7", c.VolNums[2][0].Value)
	assert.Equal(t, "Short Stories", c.VolNums[3][0].Value)
}

func TestVnMerge_CollapsesCompounds(t *testing.T) {
	c := &Component{Tag: TagVolNum, VolNums: []Compound{
		{{Value: "2", Kind: KindVolumeWord}, {Value: "5", Kind: KindPartWord}},
		{{Value: "3", Kind: KindInternal}},
	}}
	l := NewList(c)

	require.NoError(t, vnMerge(l, nil))

	assert.Equal(t, Compound{{Value: "2.5", Kind: KindMerged}}, c.VolNums[0])
	// Single-pair compounds keep their kind
	assert.Equal(t, Compound{{Value: "3", Kind: KindInternal}}, c.VolNums[1])
}

func TestVnZeroPad(t *testing.T) {
	c := &Component{Tag: TagVolNum, VolNums: []Compound{
		{{Value: "2", Kind: KindVolumeWord}, {Value: "5", Kind: KindPartWord}},
		{{Value: "12", Kind: KindInternal}},
	}}
	l := NewList(c)

	require.NoError(t, vnZeroPad(l, nil))

	assert.Equal(t, "02", c.VolNums[0][0].Value)
	assert.Equal(t, "05", c.VolNums[0][1].Value)
	assert.Equal(t, "12", c.VolNums[1][0].Value)
}

func TestVnShort(t *testing.T) {
	// Span of volumes: first-last
	l := threeVolumeNums(t)
	require.NoError(t, vnShort(l, nil))
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "1-3", l.At(0).Str)

	// Single volume with a compound: merged first
	c := &Component{Tag: TagVolNum, VolNums: []Compound{
		{{Value: "2", Kind: KindVolumeWord}, {Value: "5", Kind: KindPartWord}},
	}}
	l = NewList(c)
	require.NoError(t, vnShort(l, nil))
	assert.Equal(t, "2.5", l.At(0).Str)
}

func TestVnFull_MultipleVolumes(t *testing.T) {
	l := threeVolumeNums(t)
	require.NoError(t, vnFull(l, nil))
	assert.Equal(t, "Volumes 1, 2 & 3", l.At(0).Str)
}

func TestVnFull_SingleVolumeRenderings(t *testing.T) {
	testCases := []struct {
		name string
		vn   Compound
		want string
	}{
		{"internal number", Compound{{Value: "7", Kind: KindInternal}}, "Volume 7"},
		{"parsed volume number", Compound{{Value: "2", Kind: KindVolumeWord}}, "Volume 2"},
		{"special label", Compound{{Value: "Short Stories", Kind: KindSpecial}}, "Short Stories"},
		{
			"preserved compound",
			Compound{{Value: "Five", Kind: KindPartWord}, {Value: "2", Kind: KindVolumeWord}},
			"Part Five Volume 2",
		},
		{
			"compound with special half",
			Compound{{Value: "Encore", Kind: KindSpecial}, {Value: "2", Kind: KindVolumeWord}},
			"Encore Volume 2",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewList(&Component{Tag: TagVolNum, VolNums: []Compound{tc.vn}})
			require.NoError(t, vnFull(l, nil))
			assert.Equal(t, tc.want, l.At(0).Str)
		})
	}
}

func TestVolumeRules_NoOpWithoutTargetComponent(t *testing.T) {
	for _, rule := range []ruleFunc{vToSeries, vSplitVolume, vTitle, vnRm, vnRmIfPn, vnNumber, vnMerge, vnZeroPad, vnShort, vnFull} {
		l := NewList(newStringComponent("x"))
		require.NoError(t, rule(l, nil))
		assert.Equal(t, 1, l.Len())
	}
}
