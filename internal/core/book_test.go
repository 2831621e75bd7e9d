package core

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fascicle/internal/epub"
	"fascicle/internal/model"
	"fascicle/internal/namegen"
	"fascicle/internal/testutil"
)

// fixedNames is an override generator with fully deterministic output, so
// the assembly tests do not depend on the rule pipeline.
func fixedNames() *namegen.Generator {
	return namegen.NewOverrideGenerator(namegen.Overrides{
		Title: func(*model.Series, []*model.Volume, []*model.Part, model.CompletionFlags) (string, error) {
			return "Fixed Title", nil
		},
		FileName: func(*model.Series, []*model.Volume, []*model.Part, model.CompletionFlags) (string, error) {
			return "Fixed_Title", nil
		},
		Folder: func(*model.Series, []*model.Volume, []*model.Part, model.CompletionFlags) (string, error) {
			return "Fixed_Folder", nil
		},
	})
}

func bookSeries() *model.Series {
	series := testutil.BuildSeries(testutil.SeriesSpec{
		Title: "Renegade",
		Slug:  "renegade",
		Volumes: []testutil.VolumeSpec{
			{PartCount: 2},
			{PartCount: 1},
		},
	})
	series.Raw.ID = "s1"
	series.Raw.Tags = []string{"fantasy", "ongoing"}
	v1 := testutil.Volume(series, 1)
	v1.Raw.Creators = []model.Creator{
		{Name: "I. Sato", Role: "ILLUSTRATOR"},
		{Name: "A. Ishikawa", Role: "AUTHOR"},
	}
	v1.Raw.Description = "The first volume."
	return series
}

// contentFor fabricates downloaded content for the parts, one image on the
// first part.
func contentFor(parts []*model.Part, covers map[*model.Volume]*model.Image) *Content {
	c := &Content{
		parts:  make(map[*model.Part]*PartContent, len(parts)),
		covers: covers,
	}
	for i, part := range parts {
		pc := &PartContent{
			Part: part,
			Text: fmt.Sprintf("<p>Chapter %d ◆ text.</p>", i+1),
		}
		if i == 0 {
			pc.Text += `<img src="https://cdn.example/plate.jpg"/>`
			pc.Images = []*model.Image{{
				URL:           "https://cdn.example/plate.jpg",
				Content:       []byte("plate"),
				LocalFilename: "i_cdn_example_plate.jpg",
				OrderInPart:   1,
			}}
		}
		c.parts[part] = pc
	}
	return c
}

// ============================================================================
// Single book assembly
// ============================================================================

func TestMakeBooks_SingleVolume(t *testing.T) {
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	series := bookSeries()
	v1 := testutil.Volume(series, 1)
	parts := v1.Parts

	cover := &model.Image{URL: "https://cdn.example/cover.jpg", Content: []byte("cover"), LocalFilename: epub.CoverFilename}
	content := contentFor(parts, map[*model.Volume]*model.Image{v1: cover})

	books, err := MakeBooks(series, parts, content, fixedNames(), epub.Options{}, now)
	require.NoError(t, err)
	require.Len(t, books, 1)
	book := books[0]

	assert.Equal(t, fmt.Sprintf("urn:fascicle:renegade-%d", now.Unix()), book.Identifier)
	assert.Equal(t, "Fixed Title", book.Title)
	assert.Equal(t, "Fixed_Title", book.FileName)
	assert.Empty(t, book.Subfolder, "no subfolder unless asked for")
	assert.Equal(t, "A. Ishikawa", book.Author)
	assert.Equal(t, epub.CollectionMetadata{ID: "s1", Title: "Renegade", Position: 1}, book.Collection)
	assert.Equal(t, "The first volume.", book.Synopsis)
	assert.Equal(t, []string{"fantasy", "ongoing"}, book.Tags)
	assert.Same(t, cover, book.Cover)
	assert.Equal(t, []string{"Part 1", "Part 2"}, book.TOC)
	assert.Equal(t, now, book.Updated)

	require.Len(t, book.Contents, 2)
	assert.Contains(t, book.Contents[0], "Chapter 1 ** text.", "reader-hostile glyphs are replaced")
	assert.Contains(t, book.Contents[0], `src="img/i_cdn_example_plate.jpg"`, "image references point into the package")
	assert.NotContains(t, book.Contents[0], "cdn.example")

	require.Len(t, book.Images, 1)
	assert.Equal(t, "i_cdn_example_plate.jpg", book.Images[0].LocalFilename)
}

func TestMakeBooks_Subfolder(t *testing.T) {
	series := bookSeries()
	parts := testutil.Volume(series, 1).Parts
	content := contentFor(parts, nil)

	books, err := MakeBooks(series, parts, content, fixedNames(), epub.Options{Subfolder: true}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Fixed_Folder", books[0].Subfolder)
}

func TestMakeBooks_NoReplaceChars(t *testing.T) {
	series := bookSeries()
	parts := testutil.Volume(series, 1).Parts
	content := contentFor(parts, nil)

	books, err := MakeBooks(series, parts, content, fixedNames(), epub.Options{NoReplaceChars: true}, testNow)
	require.NoError(t, err)
	assert.Contains(t, books[0].Contents[0], "◆", "glyphs survive with replacement off")
}

func TestMakeBooks_AuthorFallback(t *testing.T) {
	series := bookSeries()
	v1 := testutil.Volume(series, 1)
	v1.Raw.Creators = []model.Creator{{Name: "I. Sato", Role: "ILLUSTRATOR"}}
	parts := v1.Parts

	books, err := MakeBooks(series, parts, contentFor(parts, nil), fixedNames(), epub.Options{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Unknown Author", books[0].Author)
}

func TestMakeBooks_UUIDIdentifierWithoutSlug(t *testing.T) {
	series := bookSeries()
	series.Raw.Slug = ""
	parts := testutil.Volume(series, 1).Parts

	books, err := MakeBooks(series, parts, contentFor(parts, nil), fixedNames(), epub.Options{}, testNow)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(books[0].Identifier, "urn:uuid:"), books[0].Identifier)
	assert.Greater(t, len(books[0].Identifier), len("urn:uuid:"))
}

// ============================================================================
// Spans and splitting
// ============================================================================

func TestMakeBooks_MultiVolumeSpan(t *testing.T) {
	series := bookSeries()
	parts := AllParts(series)
	content := contentFor(parts, nil)

	books, err := MakeBooks(series, parts, content, fixedNames(), epub.Options{}, testNow)
	require.NoError(t, err)
	require.Len(t, books, 1)
	book := books[0]

	assert.Equal(t, 1, book.Collection.Position, "the first volume represents the span")
	want := []string{
		testutil.Part(series, 1, 1).Raw.Title,
		testutil.Part(series, 1, 2).Raw.Title,
		testutil.Part(series, 2, 1).Raw.Title,
	}
	assert.Equal(t, want, book.TOC, "cross-volume spans keep the full part titles")
}

func TestMakeBooks_ByVolume(t *testing.T) {
	series := bookSeries()
	parts := AllParts(series)
	v1, v2 := testutil.Volume(series, 1), testutil.Volume(series, 2)
	covers := map[*model.Volume]*model.Image{
		v1: {URL: "https://cdn.example/c1.jpg", LocalFilename: epub.CoverFilename},
		v2: {URL: "https://cdn.example/c2.jpg", LocalFilename: epub.CoverFilename},
	}
	content := contentFor(parts, covers)

	books, err := MakeBooks(series, parts, content, fixedNames(), epub.Options{ByVolume: true}, testNow)
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, 1, books[0].Collection.Position)
	assert.Equal(t, 2, books[1].Collection.Position)
	assert.Len(t, books[0].Contents, 2)
	assert.Len(t, books[1].Contents, 1)
	assert.Same(t, covers[v1], books[0].Cover)
	assert.Same(t, covers[v2], books[1].Cover)
	assert.Equal(t, []string{"Part 1", "Part 2"}, books[0].TOC)
	assert.Equal(t, []string{"Part 1"}, books[1].TOC)
}

// Completion flags flow into the naming pipeline per book.
func TestMakeBooks_FlagsPerBook(t *testing.T) {
	series := bookSeries()
	parts := AllParts(series)

	var got []model.CompletionFlags
	gen := namegen.NewOverrideGenerator(namegen.Overrides{
		Title: func(_ *model.Series, _ []*model.Volume, _ []*model.Part, fc model.CompletionFlags) (string, error) {
			got = append(got, fc)
			return "T", nil
		},
	})

	// volume 2 reports more parts than have launched
	testutil.Volume(series, 2).Raw.TotalParts = 3

	_, err := MakeBooks(series, parts, contentFor(parts, nil), gen, epub.Options{ByVolume: true}, testNow)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.CompletionFlags{Complete: true, Final: true}, got[0])
	assert.Equal(t, model.CompletionFlags{}, got[1])
}
