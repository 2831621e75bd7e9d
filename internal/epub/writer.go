package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"time"
)

const mimetype = "application/epub+zip"

// WriteBook writes the EPUB for d to path. cssPath, when non-empty, names a
// stylesheet file that replaces the built-in style.
func WriteBook(path string, d *BookDetails, cssPath string) error {
	css := defaultCSS
	if cssPath != "" {
		data, err := os.ReadFile(cssPath)
		if err != nil {
			return fmt.Errorf("epub: read style sheet: %w", err)
		}
		css = string(data)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("epub: %w", err)
	}
	if err := Write(f, d, css); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("epub: %w", err)
	}
	return nil
}

// Write assembles the EPUB container for d onto w. The mimetype entry goes
// first and is stored uncompressed so readers can sniff the format from the
// raw bytes.
func Write(w io.Writer, d *BookDetails, css string) error {
	if len(d.Contents) != len(d.TOC) {
		return fmt.Errorf("epub: %d chapters but %d toc entries", len(d.Contents), len(d.TOC))
	}
	if css == "" {
		css = defaultCSS
	}
	updated := d.Updated
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	zw := zip.NewWriter(w)
	add := func(name string, method uint16, data []byte) error {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   method,
			Modified: updated,
		})
		if err == nil {
			_, err = fw.Write(data)
		}
		if err != nil {
			return fmt.Errorf("epub: add %q: %w", name, err)
		}
		return nil
	}

	if err := add("mimetype", zip.Store, []byte(mimetype)); err != nil {
		return err
	}

	documents := []struct {
		name    string
		content string
	}{
		{"META-INF/container.xml", containerDocument},
		{"OEBPS/content.opf", packageDocument(d, updated)},
		{"OEBPS/nav.xhtml", navDocument(d)},
		{"OEBPS/toc.ncx", ncxDocument(d)},
		{"OEBPS/styles.css", css},
	}
	for _, doc := range documents {
		if err := add(doc.name, zip.Deflate, []byte(doc.content)); err != nil {
			return err
		}
	}

	if d.Cover != nil {
		if err := add("OEBPS/"+CoverFilename, zip.Deflate, d.Cover.Content); err != nil {
			return err
		}
		if err := add("OEBPS/cover.xhtml", zip.Deflate, []byte(coverDocument())); err != nil {
			return err
		}
	}

	for i, content := range d.Contents {
		doc := chapterDocument(d.TOC[i], content)
		if err := add("OEBPS/"+chapterFilename(i), zip.Deflate, []byte(doc)); err != nil {
			return err
		}
	}

	for _, img := range d.packagedImages() {
		if err := add("OEBPS/"+ImageHref(img.LocalFilename), zip.Deflate, img.Content); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("epub: %w", err)
	}
	return nil
}
