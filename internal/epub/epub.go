// Package epub assembles EPUB3 files from prepared book content.
//
// The writer is self-contained over archive/zip: the OPF package document,
// navigation documents and container metadata are generated directly, which
// keeps full control over the series collection metadata and the entry
// ordering readers care about (mimetype first, stored; cover image before
// content images).
package epub

import (
	"time"

	"fascicle/internal/model"
)

// Options drive EPUB generation for one run.
type Options struct {
	OutputDir      string
	ByVolume       bool
	ExtractImages  bool
	ExtractContent bool
	NoReplaceChars bool
	StyleCSSPath   string
	Subfolder      bool
	NamingRules    string
}

// CollectionMetadata links a book to its series so readers can group and
// order volumes.
type CollectionMetadata struct {
	ID       string
	Title    string
	Position int
}

// BookDetails is everything the writer needs for one EPUB file.
//
// Contents holds one XHTML document (or fragment) per part, in reading
// order; TOC holds the matching entry titles. Images must already carry
// their packaged local filenames, and chapter markup must already reference
// those packaged paths.
type BookDetails struct {
	Identifier string
	Title      string
	FileName   string
	Subfolder  string
	Author     string
	Collection CollectionMetadata
	Synopsis   string
	Tags       []string
	Cover      *model.Image
	TOC        []string
	Contents   []string
	Images     []*model.Image
	Updated    time.Time
}

// CoverFilename is the packaged name of the cover image. It sorts before
// the i_-prefixed content images so file managers preview it first.
const CoverFilename = "cover.jpg"

// ImageHref is the path of a packaged content image relative to the content
// root, as referenced from chapter markup.
func ImageHref(localFilename string) string {
	if localFilename == CoverFilename {
		return localFilename
	}
	return "img/" + localFilename
}

// packagedImages is the content image list with repeats dropped: chapters
// of one volume can share an illustration, and a cover promoted from a part
// image is already written as cover.jpg.
func (d *BookDetails) packagedImages() []*model.Image {
	seen := make(map[string]bool, len(d.Images))
	if d.Cover != nil {
		seen[CoverFilename] = true
	}
	unique := d.Images[:0:0]
	for _, img := range d.Images {
		if seen[img.LocalFilename] {
			continue
		}
		seen[img.LocalFilename] = true
		unique = append(unique, img)
	}
	return unique
}
