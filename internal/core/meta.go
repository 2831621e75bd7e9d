package core

import (
	"context"
	"fmt"
	"time"

	"fascicle/internal/api"
	"fascicle/internal/model"
	"fascicle/internal/partspec"
	"fascicle/internal/weburl"
)

// NotANovelError reports a series whose content cannot be assembled into
// text books.
type NotANovelError struct {
	Title string
	Type  string
}

func (e *NotANovelError) Error() string {
	return fmt.Sprintf("series %q is not a novel (type: %s)", e.Title, e.Type)
}

// CheckNovel rejects manga and audiobook series early: only novel prepubs
// carry the XHTML content the EPUB pipeline works on.
func CheckNovel(series *model.Series) error {
	if t := series.Raw.Type; t != "" && t != "NOVEL" {
		return &NotANovelError{Title: series.Raw.Title, Type: t}
	}
	return nil
}

// ResolveSeries finds the slug of the series behind a recognized URL.
// Current-site URLs carry it directly; legacy volume and part slugs are
// opaque and need one API lookup each.
func (s *Session) ResolveSeries(ctx context.Context, res weburl.Resource) (string, error) {
	switch res.Kind {
	case weburl.KindSeries:
		return res.Slug, nil
	case weburl.KindVolume:
		if !res.Legacy {
			return res.Slug, nil
		}
		series, err := s.API.SeriesForVolume(ctx, res.Slug)
		if err != nil {
			return "", err
		}
		return series.Slug, nil
	case weburl.KindPart:
		series, err := s.API.SeriesForPart(ctx, res.Slug)
		if err != nil {
			return "", err
		}
		return series.Slug, nil
	}
	return "", fmt.Errorf("core: unhandled resource kind %q", res.Kind)
}

// FetchMeta retrieves the full metadata tree of a series and resolves it
// into the numbered hierarchy.
func (s *Session) FetchMeta(ctx context.Context, slug string) (*model.Series, error) {
	agg, err := s.API.SeriesAggregate(ctx, slug)
	if err != nil {
		return nil, err
	}
	return resolveAggregate(agg, s.Now), nil
}

// resolveAggregate wires the raw tree into series -> volumes -> parts with
// back-references and 1-based numbering. Parts announced with a launch
// date still in the future are dropped: they exist in the feed before
// their content does. Volumes left without parts stay in the tree so the
// volume numbering keeps matching the publisher's count.
func resolveAggregate(agg *api.Aggregate, now time.Time) *model.Series {
	series := &model.Series{Raw: agg.Series}
	for i, va := range agg.Volumes {
		volume := &model.Volume{
			Raw:    va.Volume,
			Series: series,
			Num:    i + 1,
		}
		for _, rp := range va.Parts {
			part := &model.Part{
				Raw:         rp,
				Volume:      volume,
				NumInVolume: len(volume.Parts) + 1,
			}
			if PartInFuture(now, part) {
				continue
			}
			volume.Parts = append(volume.Parts, part)
		}
		series.Volumes = append(series.Volumes, volume)
	}
	return series
}

// ToPartSpec converts a URL resource into the specification covering it:
// the whole series, one volume, or a single part. The series metadata must
// be the one the resource belongs to.
func ToPartSpec(series *model.Series, res weburl.Resource) (partspec.Spec, error) {
	switch res.Kind {
	case weburl.KindSeries:
		return partspec.WholeSeries{}, nil

	case weburl.KindVolume:
		if !res.Legacy {
			if res.VolumeNumber < 1 || res.VolumeNumber > len(series.Volumes) {
				return nil, fmt.Errorf("incorrect volume number in URL: %s", res.URL)
			}
			return partspec.WholeVolume{Volume: res.VolumeNumber}, nil
		}
		for _, volume := range series.Volumes {
			if volume.Raw.Slug == res.Slug {
				return partspec.WholeVolume{Volume: volume.Num}, nil
			}
		}
		return nil, fmt.Errorf("volume %q not found in series %q", res.Slug, series.Raw.Title)

	case weburl.KindPart:
		for _, part := range AllParts(series) {
			if part.Raw.Slug == res.Slug {
				return partspec.FromPart(part), nil
			}
		}
		return nil, fmt.Errorf("part %q not found in series %q", res.Slug, series.Raw.Title)
	}
	return nil, fmt.Errorf("core: unhandled resource kind %q", res.Kind)
}

// AllParts flattens the series tree in publication order.
func AllParts(series *model.Series) []*model.Part {
	var parts []*model.Part
	for _, volume := range series.Volumes {
		parts = append(parts, volume.Parts...)
	}
	return parts
}

// LastPart returns the newest launched part of the series, or nil when
// nothing has launched yet.
func LastPart(series *model.Series) *model.Part {
	parts := AllParts(series)
	if len(parts) == 0 {
		return nil
	}
	return parts[len(parts)-1]
}

// LastPartSpecAndDate describes the newest part for the track store: the
// relative specification of the last part and the most recent launch date
// anywhere in the series. The two can disagree when the publisher launches
// a catchup part out of order, so the date is a maximum, not the last
// part's own.
func LastPartSpecAndDate(series *model.Series) (string, time.Time) {
	parts := AllParts(series)
	if len(parts) == 0 {
		return "", time.Time{}
	}
	spec := partspec.FromPart(parts[len(parts)-1]).String()
	var newest time.Time
	for _, part := range parts {
		if launch := part.LaunchTime(); launch.After(newest) {
			newest = launch
		}
	}
	return spec, newest
}
