package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fascicle/internal/epub"
	"fascicle/internal/model"
	"fascicle/internal/namegen"
	"fascicle/internal/partspec"
)

// MakeBooks turns fetched content into writer-ready book details: one book
// per volume with by-volume splitting, one book for the whole span
// otherwise. Every part passed in must have a content entry; parts whose
// download failed are filtered out before this point.
func MakeBooks(series *model.Series, parts []*model.Part, content *Content, gen *namegen.Generator, opts epub.Options, now time.Time) ([]*epub.BookDetails, error) {
	if !opts.ByVolume {
		book, err := makeBook(series, volumesOf(parts), parts, content, gen, opts, now)
		if err != nil {
			return nil, err
		}
		return []*epub.BookDetails{book}, nil
	}

	var books []*epub.BookDetails
	for _, group := range groupByVolume(parts) {
		book, err := makeBook(series, []*model.Volume{group.volume}, group.parts, content, gen, opts, now)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// makeBook assembles the details of one EPUB file. The first volume of the
// span represents the book for the scalar metadata: author, synopsis,
// series position and cover.
func makeBook(series *model.Series, volumes []*model.Volume, parts []*model.Part, content *Content, gen *namegen.Generator, opts epub.Options, now time.Time) (*epub.BookDetails, error) {
	repr := volumes[0]
	fc := partspec.Flags(volumes, parts)
	names, err := gen.Generate(series, volumes, parts, fc)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(parts))
	var images []*model.Image
	for _, part := range parts {
		pc := content.Part(part)
		text := pc.Text
		if !opts.NoReplaceChars {
			text = ReplaceGlyphs(text)
		}
		contents = append(contents, rewriteImageURLs(text, pc.Images))
		images = append(images, pc.Images...)
	}

	book := &epub.BookDetails{
		Identifier: identifier(series, now),
		Title:      names.Title,
		FileName:   names.FileName,
		Author:     author(repr),
		Collection: epub.CollectionMetadata{
			ID:       series.Raw.ID,
			Title:    series.Raw.Title,
			Position: repr.Num,
		},
		Synopsis: repr.Raw.Description,
		Tags:     series.Raw.Tags,
		Cover:    content.Cover(repr),
		TOC:      tocEntries(volumes, parts),
		Contents: contents,
		Images:   images,
		Updated:  now,
	}
	if opts.Subfolder {
		book.Subfolder = names.Folder
	}
	return book, nil
}

// rewriteImageURLs points chapter markup at the packaged image files
// instead of the CDN.
func rewriteImageURLs(text string, images []*model.Image) string {
	for _, img := range images {
		text = strings.ReplaceAll(text, img.URL, epub.ImageHref(img.LocalFilename))
	}
	return text
}

// identifier mints the dc:identifier of a book. The timestamp keeps
// repeated runs distinct: readers treat books with the same identifier as
// the same publication and hide one.
func identifier(series *model.Series, now time.Time) string {
	if slug := series.Raw.Slug; slug != "" {
		return fmt.Sprintf("urn:fascicle:%s-%d", slug, now.Unix())
	}
	return "urn:uuid:" + uuid.NewString()
}

// author picks the first creator credited with the author role.
func author(volume *model.Volume) string {
	for _, c := range volume.Raw.Creators {
		if c.Role == "AUTHOR" {
			return c.Name
		}
	}
	return "Unknown Author"
}

// tocEntries derives the chapter titles. A single part reads best as its
// bare position. A span across volumes keeps the full publisher titles,
// since the volume is the only thing telling its parts apart; inside one
// volume the titles shorten to "Part <n>".
func tocEntries(volumes []*model.Volume, parts []*model.Part) []string {
	entries := make([]string, 0, len(parts))
	if len(volumes) > 1 {
		for _, part := range parts {
			entries = append(entries, part.Raw.Title)
		}
		return entries
	}
	for _, part := range parts {
		entries = append(entries, fmt.Sprintf("Part %d", part.NumInVolume))
	}
	return entries
}

// volumesOf lists the distinct volumes of a part span in first-part order.
// Parts arrive in publication order, so one volume is one consecutive run.
func volumesOf(parts []*model.Part) []*model.Volume {
	var volumes []*model.Volume
	for _, part := range parts {
		if len(volumes) == 0 || volumes[len(volumes)-1] != part.Volume {
			volumes = append(volumes, part.Volume)
		}
	}
	return volumes
}

type volumeGroup struct {
	volume *model.Volume
	parts  []*model.Part
}

// groupByVolume splits a part span into per-volume runs, in order.
func groupByVolume(parts []*model.Part) []volumeGroup {
	var groups []volumeGroup
	for _, part := range parts {
		if len(groups) == 0 || groups[len(groups)-1].volume != part.Volume {
			groups = append(groups, volumeGroup{volume: part.Volume})
		}
		last := &groups[len(groups)-1]
		last.parts = append(last.parts, part)
	}
	return groups
}
