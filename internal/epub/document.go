package epub

import (
	"fmt"
	"strings"
	"time"
)

// Fixed documents and the style applied when no custom CSS is given. The
// img rules force one image per page so full-page illustrations stay
// readable on e-ink devices.
const (
	containerDocument = `<?xml version="1.0" encoding="utf-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

	defaultCSS = `body {color: black;}
h1 {page-break-before: always;}
img {width: 100%; page-break-after: always; page-break-before: always;
    object-fit: contain;}
p {text-indent: 1.3em;}
.centerp {text-align: center; text-indent: 0em;}
.noindent {text-indent: 0em;}
`
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

func chapterFilename(i int) string {
	return fmt.Sprintf("chap_%d.xhtml", i)
}

// packageDocument renders OEBPS/content.opf. The collection meta block is
// the calibre-recognized series linkage: a belongs-to-collection element
// refined by collection-type "series" and the group position. The position
// is the number of the first volume in the book; readers display the series
// as volume 1 when it is absent.
func packageDocument(d *BookDetails, updated time.Time) string {
	stamp := updated.UTC().Format("2006-01-02T15:04:05Z")

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="book-id">` + "\n")

	b.WriteString(`  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">` + "\n")
	fmt.Fprintf(&b, "    <dc:identifier id=\"book-id\">%s</dc:identifier>\n", xmlEscape(d.Identifier))
	fmt.Fprintf(&b, "    <dc:title>%s</dc:title>\n", xmlEscape(d.Title))
	b.WriteString("    <dc:language>en</dc:language>\n")
	fmt.Fprintf(&b, "    <dc:creator id=\"creator\">%s</dc:creator>\n", xmlEscape(d.Author))
	if d.Synopsis != "" {
		fmt.Fprintf(&b, "    <dc:description>%s</dc:description>\n", xmlEscape(d.Synopsis))
	}
	for _, tag := range d.Tags {
		fmt.Fprintf(&b, "    <dc:subject>%s</dc:subject>\n", xmlEscape(tag))
	}
	fmt.Fprintf(&b, "    <dc:date>%s</dc:date>\n", stamp)
	fmt.Fprintf(&b, "    <meta property=\"dcterms:modified\">%s</meta>\n", stamp)
	if d.Collection.ID != "" {
		id := xmlEscape(d.Collection.ID)
		fmt.Fprintf(&b, "    <meta property=\"belongs-to-collection\" id=%q>%s</meta>\n", id, xmlEscape(d.Collection.Title))
		fmt.Fprintf(&b, "    <meta property=\"collection-type\" refines=\"#%s\">series</meta>\n", id)
		if d.Collection.Position > 0 {
			fmt.Fprintf(&b, "    <meta property=\"group-position\" refines=\"#%s\">%d</meta>\n", id, d.Collection.Position)
		}
	}
	if d.Cover != nil {
		b.WriteString(`    <meta name="cover" content="cover-image"/>` + "\n")
	}
	b.WriteString("  </metadata>\n")

	b.WriteString("  <manifest>\n")
	if d.Cover != nil {
		b.WriteString(`    <item id="cover-image" href="cover.jpg" media-type="image/jpeg" properties="cover-image"/>` + "\n")
		b.WriteString(`    <item id="cover" href="cover.xhtml" media-type="application/xhtml+xml"/>` + "\n")
	}
	b.WriteString(`    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>` + "\n")
	b.WriteString(`    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>` + "\n")
	b.WriteString(`    <item id="style" href="styles.css" media-type="text/css"/>` + "\n")
	for i := range d.Contents {
		fmt.Fprintf(&b, "    <item id=\"chap_%d\" href=%q media-type=\"application/xhtml+xml\"/>\n", i, chapterFilename(i))
	}
	for i, img := range d.packagedImages() {
		fmt.Fprintf(&b, "    <item id=\"img_%d\" href=%q media-type=%q/>\n", i, xmlEscape(ImageHref(img.LocalFilename)), mediaType(img.LocalFilename))
	}
	b.WriteString("  </manifest>\n")

	b.WriteString(`  <spine toc="ncx">` + "\n")
	if d.Cover != nil {
		b.WriteString(`    <itemref idref="cover"/>` + "\n")
	}
	b.WriteString(`    <itemref idref="nav"/>` + "\n")
	for i := range d.Contents {
		fmt.Fprintf(&b, "    <itemref idref=\"chap_%d\"/>\n", i)
	}
	b.WriteString("  </spine>\n")

	b.WriteString("</package>\n")
	return b.String()
}

// navDocument renders the EPUB3 navigation document, one entry per chapter.
func navDocument(d *BookDetails) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="en" xml:lang="en">` + "\n")
	b.WriteString("<head>\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", xmlEscape(d.Title))
	b.WriteString(`  <link rel="stylesheet" type="text/css" href="styles.css"/>` + "\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(`  <nav epub:type="toc" id="toc">` + "\n")
	b.WriteString("    <h1>Table of Contents</h1>\n    <ol>\n")
	for i, title := range d.TOC {
		fmt.Fprintf(&b, "      <li><a href=%q>%s</a></li>\n", chapterFilename(i), xmlEscape(title))
	}
	b.WriteString("    </ol>\n  </nav>\n</body>\n</html>\n")
	return b.String()
}

// ncxDocument renders the EPUB2 compatibility table of contents.
func ncxDocument(d *BookDetails) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">` + "\n")
	b.WriteString("  <head>\n")
	fmt.Fprintf(&b, "    <meta name=\"dtb:uid\" content=%q/>\n", xmlEscape(d.Identifier))
	b.WriteString(`    <meta name="dtb:depth" content="1"/>` + "\n")
	b.WriteString(`    <meta name="dtb:totalPageCount" content="0"/>` + "\n")
	b.WriteString(`    <meta name="dtb:maxPageNumber" content="0"/>` + "\n")
	b.WriteString("  </head>\n")
	fmt.Fprintf(&b, "  <docTitle><text>%s</text></docTitle>\n", xmlEscape(d.Title))
	b.WriteString("  <navMap>\n")
	for i, title := range d.TOC {
		fmt.Fprintf(&b, "    <navPoint id=\"navPoint-%d\" playOrder=\"%d\">\n", i+1, i+1)
		fmt.Fprintf(&b, "      <navLabel><text>%s</text></navLabel>\n", xmlEscape(title))
		fmt.Fprintf(&b, "      <content src=%q/>\n", chapterFilename(i))
		b.WriteString("    </navPoint>\n")
	}
	b.WriteString("  </navMap>\n</ncx>\n")
	return b.String()
}

func coverDocument() string {
	return `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en" xml:lang="en">
<head>
  <title>Cover</title>
  <link rel="stylesheet" type="text/css" href="styles.css"/>
</head>
<body>
  <img src="cover.jpg" alt="cover"/>
</body>
</html>
`
}

// chapterDocument wraps one part's markup into a standalone XHTML page.
// Content that already forms a full document is reduced to its body first.
func chapterDocument(title, content string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" lang="en" xml:lang="en">` + "\n")
	b.WriteString("<head>\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", xmlEscape(title))
	b.WriteString(`  <link rel="stylesheet" type="text/css" href="styles.css"/>` + "\n")
	b.WriteString("</head>\n<body>\n")
	body := extractBody(content)
	b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// extractBody returns the inner markup of a <body> element, or the input
// unchanged when there is none.
func extractBody(content string) string {
	lower := strings.ToLower(content)
	start := strings.Index(lower, "<body")
	if start < 0 {
		return content
	}
	open := strings.IndexByte(lower[start:], '>')
	if open < 0 {
		return content
	}
	inner := content[start+open+1:]
	if end := strings.LastIndex(strings.ToLower(inner), "</body>"); end >= 0 {
		inner = inner[:end]
	}
	return strings.TrimSpace(inner)
}

// mediaType maps a packaged image filename to its manifest media type.
// The service serves JPEG almost everywhere, so that is the fallback.
func mediaType(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".gif"):
		return "image/gif"
	case strings.HasSuffix(filename, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
