package model

import "time"

// RawSeries is the series payload as served by the API.
type RawSeries struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
	Catchup  bool     `json:"catchup"`
	Synopsis string   `json:"synopsis"`
}

// RawVolume is the volume payload as served by the API.
type RawVolume struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Number      int       `json:"number"`
	Creators    []Creator `json:"creators"`
	Description string    `json:"description"`
	TotalParts  int       `json:"totalParts"`
	Owned       bool      `json:"owned"`
	Publishing  string    `json:"publishing"`
	Cover       Cover     `json:"cover"`
}

// RawPart is the part payload as served by the API.
type RawPart struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Launch  string `json:"launch"`
	Preview bool   `json:"preview"`
}

// Creator credits a person on a volume. Role is an API constant
// such as "AUTHOR", "ILLUSTRATOR" or "TRANSLATOR".
type Creator struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Cover holds the CDN locations of a volume cover.
type Cover struct {
	CoverURL     string `json:"coverUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Series is a resolved series with its volumes in publication order.
type Series struct {
	Raw     RawSeries
	Volumes []*Volume
}

// Volume is a resolved volume. Num is the 1-based position of the volume
// in the series, assigned at fetch time; it is not part of the wire data.
type Volume struct {
	Raw    RawVolume
	Series *Series
	Num    int
	Parts  []*Part
}

// PublishingTime parses the volume's final publishing date. The zero time
// is returned when the publisher has not scheduled one.
func (v *Volume) PublishingTime() time.Time {
	t, err := time.Parse(time.RFC3339, v.Raw.Publishing)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Part is a resolved prepub part. NumInVolume is the 1-based position of
// the part inside its volume.
type Part struct {
	Raw         RawPart
	Volume      *Volume
	NumInVolume int
}

// LaunchTime parses the part's launch date. The zero time is returned when
// the API sent none or an unparsable one.
func (p *Part) LaunchTime() time.Time {
	t, err := time.Parse(time.RFC3339, p.Raw.Launch)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Image is a downloaded content image attached to a part.
type Image struct {
	URL           string
	Content       []byte
	LocalFilename string
	OrderInPart   int
}

// CompletionFlags describes how much of the addressed scope was included.
// Complete means every part of the scope; Final means the last available
// part of its volume was included.
type CompletionFlags struct {
	Complete bool
	Final    bool
}
