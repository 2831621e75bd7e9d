package core

import (
	"bytes"
	"context"
	"encoding/xml"
	"log/slog"
	"strings"

	"fascicle/internal/epub"
	"fascicle/internal/model"
)

// fetchCover picks the best cover for a volume: a high resolution image
// placed at the head of the volume's prepub content when one exists, the
// catalog cover otherwise. Returns nil when nothing can be downloaded.
func (s *Session) fetchCover(ctx context.Context, volume *model.Volume, content *Content) *model.Image {
	if url := s.hiresCoverURL(ctx, volume, content); url != "" {
		img, err := s.fetchImage(ctx, url)
		if err == nil {
			return img
		}
		slog.Debug("high resolution cover could not be downloaded", "url", url, "error", err)
	}

	lowres := volume.Raw.Cover.CoverURL
	if lowres == "" {
		return nil
	}
	img, err := s.fetchImage(ctx, lowres)
	if err != nil {
		slog.Warn("cover could not be downloaded", "volume", volume.Raw.Slug, "error", err)
		return nil
	}
	return img
}

// hiresCoverURL scans the volume's available parts for an image appearing
// before any chapter text: that slot is where the publisher puts the full
// resolution cover. Content already downloaded for the run is reused;
// anything else goes through the API cache, so a later chapter fetch does
// not pay twice.
func (s *Session) hiresCoverURL(ctx context.Context, volume *model.Volume, content *Content) string {
	for _, part := range volume.Parts {
		if !s.Available(part) {
			continue
		}
		text := ""
		if pc := content.Part(part); pc != nil {
			text = pc.Text
		} else {
			fetched, err := s.API.PartContent(ctx, part.Raw.Slug)
			if err != nil {
				slog.Debug("part content not reachable for cover scan", "part", part.Raw.Slug, "error", err)
				continue
			}
			text = fetched
		}
		if url := leadingImageURL(text); url != "" {
			return url
		}
	}
	return ""
}

// leadingImageURL returns the src of the document's first image when it
// appears before any text, "" otherwise.
func leadingImageURL(content string) string {
	dec := lenientDecoder(content)
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !strings.EqualFold(t.Name.Local, "img") {
				continue
			}
			for _, attr := range t.Attr {
				if strings.EqualFold(attr.Name.Local, "src") {
					return attr.Value
				}
			}
			return ""
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return ""
			}
		}
	}
}

// renameCovers gives every picked cover its packaged name. A cover that is
// also referenced as a content image gets the content copy renamed too, so
// the chapter markup resolves to the single packaged cover file.
func renameCovers(content *Content) {
	for _, cover := range content.covers {
		cover.LocalFilename = epub.CoverFilename
		for _, pc := range content.parts {
			for _, img := range pc.Images {
				if img.URL == cover.URL {
					img.LocalFilename = epub.CoverFilename
				}
			}
		}
	}
}
