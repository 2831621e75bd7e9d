package namegen

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Filesystem sanitizers, shared with the EPUB output layer.

var (
	foldernameRe = regexp.MustCompile(`[<>:"/\\|?*]+`)
	filenameRe   = regexp.MustCompile(`[^0-9a-zA-Z]+`)
)

// ToSafeFilename strips diacritics and replaces every run of characters
// outside [0-9a-zA-Z] and the preserved set with the replacement string,
// trimming leading and trailing replacements.
func ToSafeFilename(name, replace, preserve string) string {
	name = stripMarks(name)
	re := filenameRe
	if preserve != "" {
		re = regexp.MustCompile(`[^0-9a-zA-Z` + regexp.QuoteMeta(preserve) + `]+`)
	}
	return strings.Trim(re.ReplaceAllString(name, replace), replace)
}

// ToSafeFoldername strips diacritics and replaces runs of the characters
// unsafe in directory names, trimming leading and trailing replacements.
func ToSafeFoldername(name, replace string) string {
	name = stripMarks(name)
	return strings.Trim(foldernameRe.ReplaceAllString(name, replace), replace)
}

// stripMarks decomposes to NFD and drops combining marks, turning "é"
// into "e".
func stripMarks(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
