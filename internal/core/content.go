package core

import (
	"context"
	"encoding/xml"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"fascicle/internal/model"
	"fascicle/internal/namegen"
)

// fetchConcurrency bounds the parallel part downloads of one run. The API
// rate limiter does the actual pacing; the bound keeps memory flat for
// long series.
const fetchConcurrency = 8

// PartContent is the downloaded prepub of one part: the raw XHTML and the
// content images in document order.
type PartContent struct {
	Part   *model.Part
	Text   string
	Images []*model.Image
}

// Content is the fetched payload of a generation run. Parts whose prepub
// download failed have no entry, so callers can tell missing content from
// empty content.
type Content struct {
	parts  map[*model.Part]*PartContent
	covers map[*model.Volume]*model.Image
}

// Part returns the downloaded content of a part, or nil when its download
// failed.
func (c *Content) Part(p *model.Part) *PartContent { return c.parts[p] }

// Cover returns the cover image picked for a volume, or nil when none
// could be downloaded.
func (c *Content) Cover(v *model.Volume) *model.Image { return c.covers[v] }

// FetchContent downloads the prepub text and images of the given parts,
// plus a cover for each volume in coverVolumes. Parts download
// concurrently. A failed image download is logged and skipped; a failed
// part download leaves the part without an entry so the caller decides how
// fatal that is.
func (s *Session) FetchContent(ctx context.Context, parts []*model.Part, coverVolumes []*model.Volume) (*Content, error) {
	content := &Content{
		parts:  make(map[*model.Part]*PartContent, len(parts)),
		covers: make(map[*model.Volume]*model.Image, len(coverVolumes)),
	}

	results := make([]*PartContent, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, part := range parts {
		g.Go(func() error {
			pc, err := s.fetchPart(gctx, part)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				slog.Warn("part content could not be downloaded", "part", part.Raw.Slug, "error", err)
				return nil
			}
			results[i] = pc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, pc := range results {
		if pc != nil {
			content.parts[pc.Part] = pc
		}
	}

	for _, volume := range coverVolumes {
		if cover := s.fetchCover(ctx, volume, content); cover != nil {
			content.covers[volume] = cover
		}
	}
	renameCovers(content)
	return content, nil
}

// fetchPart downloads one part's XHTML and every image it references, in
// document order. OrderInPart counts only the images that actually
// downloaded.
func (s *Session) fetchPart(ctx context.Context, part *model.Part) (*PartContent, error) {
	text, err := s.API.PartContent(ctx, part.Raw.Slug)
	if err != nil {
		return nil, err
	}
	pc := &PartContent{Part: part, Text: text}
	for _, src := range imageURLs(text) {
		img, err := s.fetchImage(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("image could not be downloaded, skipping", "url", src, "error", err)
			continue
		}
		img.OrderInPart = len(pc.Images) + 1
		pc.Images = append(pc.Images, img)
	}
	return pc, nil
}

// fetchImage downloads one content image. The CDN serves a jpg twin for
// every webp asset; readers largely cannot render webp, so the twin is
// fetched instead. The returned Image keeps the URL the content references
// so rewriting still finds it.
func (s *Session) fetchImage(ctx context.Context, src string) (*model.Image, error) {
	fetchURL := src
	if strings.Contains(fetchURL, "/webp/") {
		fetchURL = strings.Replace(fetchURL, "/webp/", "/jpg/", 1)
	}
	if strings.HasSuffix(fetchURL, ".webp") {
		fetchURL = strings.TrimSuffix(fetchURL, ".webp") + ".jpg"
	}
	data, err := s.API.Image(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	return &model.Image{
		URL:           src,
		Content:       data,
		LocalFilename: localImageFilename(fetchURL),
	}, nil
}

// localImageFilename derives the packaged name of a content image from the
// URL it was fetched from: "i_" plus the sanitized URL without scheme and
// extension, keeping the extension. The full URL goes into the name
// because part images across a volume share their base name on the CDN.
func localImageFilename(rawURL string) string {
	ext := path.Ext(rawURL)
	root := strings.TrimSuffix(rawURL, ext)
	root = strings.TrimPrefix(root, "https://")
	root = strings.TrimPrefix(root, "http://")
	return "i_" + namegen.ToSafeFilename(root, "_", "") + ext
}

// lenientDecoder tokenizes prepub XHTML. The documents are not always
// strictly well formed, so the decoder runs in non-strict mode with the
// HTML entity and auto-close tables.
func lenientDecoder(content string) *xml.Decoder {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return dec
}

// imageURLs extracts the img src attributes of a part document in order.
func imageURLs(content string) []string {
	var urls []string
	dec := lenientDecoder(content)
	for {
		tok, err := dec.Token()
		if err != nil {
			return urls
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "img") {
			continue
		}
		for _, attr := range start.Attr {
			if strings.EqualFold(attr.Name.Local, "src") && attr.Value != "" {
				urls = append(urls, attr.Value)
				break
			}
		}
	}
}

// glyphReplacer swaps the scene-break glyphs the publisher is fond of for
// "**": common reader fonts render them as boxes.
var glyphReplacer = func() *strings.Replacer {
	glyphs := []rune{
		'♱',
		'◆',
		'\U0001f3f6', // BLACK ROSETTE
		'◇',
		'★',
		'▼',
		'△',
		'◯',
		'✽',
		'✥',
	}
	pairs := make([]string, 0, 2*len(glyphs))
	for _, g := range glyphs {
		pairs = append(pairs, string(g), "**")
	}
	return strings.NewReplacer(pairs...)
}()

// ReplaceGlyphs substitutes glyphs absent from common reader fonts.
func ReplaceGlyphs(content string) string {
	return glyphReplacer.Replace(content)
}
