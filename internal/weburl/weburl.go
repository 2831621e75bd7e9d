// Package weburl recognizes Kisaragi Press website URLs and maps them to the
// content they address.
//
// Two site generations are understood: the current one
// (/series/<slug>, /series/<slug>#volume-<n>, /read/<part-slug>) and the old
// one (/s/<slug>, /v/<slug>, /c/<slug>). Old-site slugs are opaque: a legacy
// volume or part URL cannot be rewritten into a current-site address.
package weburl

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// BaseURL is the canonical website origin.
const BaseURL = "https://kisaragi.press"

const siteHost = "kisaragi.press"

// Kind tells what a URL points at.
type Kind string

const (
	KindSeries Kind = "SERIES"
	KindVolume Kind = "VOLUME"
	KindPart   Kind = "PART"
)

// Resource identifies the content a website URL points at.
//
// For current-site volume URLs, Slug is the series slug and VolumeNumber the
// 1-based volume position from the fragment. For everything else Slug is the
// slug of the resource itself and VolumeNumber is 0.
type Resource struct {
	URL          string
	Kind         Kind
	Slug         string
	VolumeNumber int
	Legacy       bool
}

// BadURLError reports a URL that does not point at known website content.
type BadURLError struct {
	URL    string
	Reason string
}

func (e *BadURLError) Error() string {
	return fmt.Sprintf("invalid website URL %q: %s", e.URL, e.Reason)
}

var (
	legacyRe   = regexp.MustCompile(`^/(s|v|c)/([^/]+)`)
	seriesRe   = regexp.MustCompile(`^/series/([^/]+)`)
	partRe     = regexp.MustCompile(`^/read/([^/]+)`)
	fragmentRe = regexp.MustCompile(`^volume-(\d+)$`)
)

// Parse maps a website URL to the resource it addresses.
func Parse(text string) (Resource, error) {
	u, err := url.Parse(text)
	if err != nil {
		return Resource{}, &BadURLError{URL: text, Reason: "not a URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Resource{}, &BadURLError{URL: text, Reason: "not a website URL"}
	}
	if !knownHost(u.Hostname()) {
		return Resource{}, &BadURLError{URL: text, Reason: "unknown host"}
	}

	if m := legacyRe.FindStringSubmatch(u.Path); m != nil {
		return Resource{URL: text, Kind: legacyKind(m[1]), Slug: m[2], Legacy: true}, nil
	}

	if m := seriesRe.FindStringSubmatch(u.Path); m != nil {
		if u.Fragment == "" {
			return Resource{URL: text, Kind: KindSeries, Slug: m[1]}, nil
		}
		fm := fragmentRe.FindStringSubmatch(u.Fragment)
		if fm == nil {
			return Resource{}, &BadURLError{URL: text, Reason: "unrecognized fragment"}
		}
		num, err := strconv.Atoi(fm[1])
		if err != nil || num < 1 {
			return Resource{}, &BadURLError{URL: text, Reason: "bad volume number in fragment"}
		}
		return Resource{URL: text, Kind: KindVolume, Slug: m[1], VolumeNumber: num}, nil
	}

	if m := partRe.FindStringSubmatch(u.Path); m != nil {
		return Resource{URL: text, Kind: KindPart, Slug: m[1]}, nil
	}

	return Resource{}, &BadURLError{URL: text, Reason: "unrecognized path"}
}

func knownHost(host string) bool {
	host = strings.ToLower(host)
	return host == siteHost || strings.HasSuffix(host, "."+siteHost)
}

func legacyKind(segment string) Kind {
	switch segment {
	case "v":
		return KindVolume
	case "c":
		return KindPart
	default:
		return KindSeries
	}
}

// SeriesURL returns the canonical URL of a series page.
func SeriesURL(slug string) string {
	return BaseURL + "/series/" + slug
}

// VolumeURL returns the canonical URL of a volume: the series page with a
// volume fragment.
func VolumeURL(seriesSlug string, num int) string {
	return SeriesURL(seriesSlug) + "#volume-" + strconv.Itoa(num)
}

// PartURL returns the canonical URL of a part reader page.
func PartURL(slug string) string {
	return BaseURL + "/read/" + slug
}

// CanonicalSeriesURL rewrites any series URL form, legacy included, into the
// canonical series page URL. The track store keys its entries this way.
func CanonicalSeriesURL(text string) (string, error) {
	r, err := Parse(text)
	if err != nil {
		return "", err
	}
	switch {
	case !r.Legacy && r.Kind != KindPart:
		// current-site series and volume URLs both carry the series slug
		return SeriesURL(r.Slug), nil
	case r.Legacy && r.Kind == KindSeries:
		return SeriesURL(r.Slug), nil
	}
	return "", &BadURLError{URL: text, Reason: "not a series URL"}
}

// String renders the canonical URL of the resource. Legacy resources keep
// their old-site paths.
func (r Resource) String() string {
	if r.Legacy {
		switch r.Kind {
		case KindVolume:
			return BaseURL + "/v/" + r.Slug
		case KindPart:
			return BaseURL + "/c/" + r.Slug
		default:
			return BaseURL + "/s/" + r.Slug
		}
	}
	switch r.Kind {
	case KindVolume:
		return VolumeURL(r.Slug, r.VolumeNumber)
	case KindPart:
		return PartURL(r.Slug)
	default:
		return SeriesURL(r.Slug)
	}
}
