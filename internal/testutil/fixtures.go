// Package testutil provides shared fixtures for tests.
//
// The builders here construct fully wired metadata trees (series -> volumes ->
// parts, with back-references and numbering filled in) so tests can describe
// shapes declaratively instead of hand-wiring model structs.
package testutil

import (
	"fmt"
	"strings"

	"fascicle/internal/model"
)

// SeriesSpec declares the shape of a series metadata tree.
//
// Empty fields get deterministic defaults: slugs derive from titles, volume
// titles default to "<series>: Volume <n>", part titles to
// "<volume> Part <n>". A volume with Parts == nil and PartCount > 0 gets
// PartCount default-titled parts.
type SeriesSpec struct {
	Title   string
	Slug    string
	Volumes []VolumeSpec
}

// VolumeSpec declares one volume inside a SeriesSpec.
type VolumeSpec struct {
	Title      string
	Slug       string
	TotalParts int
	PartCount  int
	Parts      []PartSpec
}

// PartSpec declares one part inside a VolumeSpec.
type PartSpec struct {
	Title string
	Slug  string
}

// BuildSeries materializes a SeriesSpec into a model.Series.
//
// Volume numbers and part numbers are assigned sequentially starting at 1,
// and every volume/part carries a back-reference to its parent. When
// VolumeSpec.TotalParts is zero it defaults to the number of built parts,
// i.e. the volume is fully published.
func BuildSeries(spec SeriesSpec) *model.Series {
	series := &model.Series{
		Raw: model.RawSeries{
			Title: spec.Title,
			Slug:  defaultSlug(spec.Slug, spec.Title),
		},
	}
	for vi, vs := range spec.Volumes {
		title := vs.Title
		if title == "" {
			title = fmt.Sprintf("%s: Volume %d", spec.Title, vi+1)
		}
		volume := &model.Volume{
			Raw: model.RawVolume{
				Title:  title,
				Slug:   defaultSlug(vs.Slug, title),
				Number: vi + 1,
			},
			Series: series,
			Num:    vi + 1,
		}
		parts := vs.Parts
		if parts == nil {
			parts = make([]PartSpec, vs.PartCount)
		}
		for pi, ps := range parts {
			ptitle := ps.Title
			if ptitle == "" {
				ptitle = fmt.Sprintf("%s Part %d", title, pi+1)
			}
			part := &model.Part{
				Raw: model.RawPart{
					Title: ptitle,
					Slug:  defaultSlug(ps.Slug, ptitle),
				},
				Volume:      volume,
				NumInVolume: pi + 1,
			}
			volume.Parts = append(volume.Parts, part)
		}
		volume.Raw.TotalParts = vs.TotalParts
		if volume.Raw.TotalParts == 0 {
			volume.Raw.TotalParts = len(volume.Parts)
		}
		series.Volumes = append(series.Volumes, volume)
	}
	return series
}

// SingleVolumeSeries builds a series with one fully published volume of n
// default-titled parts. The volume title is "<title>: Volume 1".
func SingleVolumeSeries(title string, n int) *model.Series {
	return BuildSeries(SeriesSpec{
		Title:   title,
		Volumes: []VolumeSpec{{PartCount: n}},
	})
}

// Volume returns the volume with the given 1-based number, or panics if it
// does not exist. Panicking keeps call sites free of error plumbing; a bad
// index is a bug in the test itself.
func Volume(series *model.Series, num int) *model.Volume {
	if num < 1 || num > len(series.Volumes) {
		panic(fmt.Sprintf("testutil: no volume %d in %q", num, series.Raw.Title))
	}
	return series.Volumes[num-1]
}

// Part returns the part with the given 1-based volume and part numbers, or
// panics if it does not exist.
func Part(series *model.Series, volNum, partNum int) *model.Part {
	volume := Volume(series, volNum)
	if partNum < 1 || partNum > len(volume.Parts) {
		panic(fmt.Sprintf("testutil: no part %d in volume %d of %q", partNum, volNum, series.Raw.Title))
	}
	return volume.Parts[partNum-1]
}

func defaultSlug(slug, title string) string {
	if slug != "" {
		return slug
	}
	s := strings.ToLower(title)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
