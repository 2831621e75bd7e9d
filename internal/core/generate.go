package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fascicle/internal/epub"
	"fascicle/internal/model"
	"fascicle/internal/namegen"
	"fascicle/internal/partspec"
)

// NoPartsError reports a request whose span contains nothing downloadable.
type NoPartsError struct {
	Series string
	Reason string
}

func (e *NoPartsError) Error() string {
	return fmt.Sprintf("no part of %q can be downloaded: %s", e.Series, e.Reason)
}

// GenerateBooks downloads the addressed parts and writes their EPUB files,
// returning the written paths in book order. Expired parts are skipped
// with a warning; a span with nothing downloadable fails with
// *NoPartsError before any content is fetched.
func (s *Session) GenerateBooks(ctx context.Context, series *model.Series, sel partspec.Selection, gen *namegen.Generator, opts epub.Options) ([]string, error) {
	available := make([]*model.Part, 0, len(sel.Parts))
	for _, part := range sel.Parts {
		if s.Available(part) {
			available = append(available, part)
		}
	}
	switch {
	case len(sel.Parts) == 0:
		return nil, &NoPartsError{Series: series.Raw.Title, Reason: "nothing in the requested range has launched"}
	case len(available) == 0:
		return nil, &NoPartsError{Series: series.Raw.Title, Reason: "the requested parts have all expired"}
	case len(available) < len(sel.Parts):
		slog.Warn("some requested parts have expired and will be skipped",
			"series", series.Raw.Title, "skipped", len(sel.Parts)-len(available))
	}

	volumes := volumesOf(available)
	coverVolumes := volumes[:1]
	if opts.ByVolume {
		coverVolumes = volumes
	}

	content, err := s.FetchContent(ctx, available, coverVolumes)
	if err != nil {
		return nil, err
	}

	// A part whose download failed mid-run is dropped rather than packaged
	// as an empty chapter.
	withContent := available[:0:0]
	for _, part := range available {
		if content.Part(part) != nil {
			withContent = append(withContent, part)
		}
	}
	if len(withContent) == 0 {
		return nil, &NoPartsError{Series: series.Raw.Title, Reason: "no part content could be downloaded"}
	}
	if len(withContent) < len(available) {
		slog.Warn("some parts have no content and will be left out",
			"series", series.Raw.Title, "missing", len(available)-len(withContent))
	}

	books, err := MakeBooks(series, withContent, content, gen, opts, s.Now)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(books))
	for _, book := range books {
		path, err := writeBook(book, opts)
		if err != nil {
			return nil, err
		}
		slog.Debug("EPUB written", "path", path)
		paths = append(paths, path)
	}

	if opts.ExtractImages {
		if err := extractImages(opts.OutputDir, withContent, content); err != nil {
			return nil, err
		}
	}
	if opts.ExtractContent {
		if err := extractContent(opts.OutputDir, withContent, content); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func writeBook(book *epub.BookDetails, opts epub.Options) (string, error) {
	path, err := epub.OutputPath(opts.OutputDir, book.Subfolder, book.FileName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := epub.WriteBook(path, book, opts.StyleCSSPath); err != nil {
		return "", err
	}
	return path, nil
}

// extractImages writes each part's downloaded images next to the EPUBs,
// named after the part. The extension is always .jpg: webp assets were
// already fetched as their jpg twins.
func extractImages(outputDir string, parts []*model.Part, content *Content) error {
	for _, part := range parts {
		for _, img := range content.Part(part).Images {
			name := fmt.Sprintf("%s_Image_%d.jpg", namegen.ToSafeFilename(part.Raw.Title, "_", ""), img.OrderInPart)
			path, err := epub.ShortenPath(filepath.Join(outputDir, name), ".jpg")
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, img.Content, 0o644); err != nil {
				return fmt.Errorf("extract image: %w", err)
			}
		}
	}
	return nil
}

// extractContent writes each part's raw prepub document next to the EPUBs.
func extractContent(outputDir string, parts []*model.Part, content *Content) error {
	for _, part := range parts {
		name := namegen.ToSafeFilename(part.Raw.Title, "_", "") + ".html"
		path, err := epub.ShortenPath(filepath.Join(outputDir, name), ".html")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content.Part(part).Text), 0o644); err != nil {
			return fmt.Errorf("extract content: %w", err)
		}
	}
	return nil
}
