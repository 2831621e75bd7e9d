package namegen

import (
	"strings"
	"unicode"
)

// Series rules turn the series component into a SeriesString, which the
// ss_* rules then rework in place. SeriesString stays distinct from
// String so the final join can decide whether to append a colon after it.

func toSeries(l *List, _ []Arg) error {
	if err := vToSeries(l, nil); err != nil {
		return err
	}
	return pToSeries(l, nil)
}

func sTitle(l *List, _ []Arg) error {
	i := l.Find(TagSeries)
	if i < 0 {
		return nil
	}
	l.ReplaceAt(i, newSeriesStrComponent(l.At(i).Series.Raw.Title))
	return nil
}

func sSlug(l *List, _ []Arg) error {
	i := l.Find(TagSeries)
	if i < 0 {
		return nil
	}
	l.ReplaceAt(i, newSeriesStrComponent(l.At(i).Series.Raw.Slug))
	return nil
}

func ssRmStopwords(l *List, _ []Arg) error {
	i := l.Find(TagSeriesStr)
	if i < 0 {
		return nil
	}
	stopwords, err := loadStopwords("en")
	if err != nil {
		return err
	}
	c := l.At(i)
	var kept []string
	for _, word := range strings.Fields(c.Str) {
		if _, drop := stopwords[word]; !drop {
			kept = append(kept, word)
		}
	}
	c.Str = strings.Join(kept, " ")
	return nil
}

func ssRmSubtitle(l *List, _ []Arg) error {
	i := l.Find(TagSeriesStr)
	if i < 0 {
		return nil
	}
	c := l.At(i)
	head, _, _ := strings.Cut(c.Str, ":")
	c.Str = strings.TrimSpace(head)
	return nil
}

func ssAcronym(l *List, _ []Arg) error {
	i := l.Find(TagSeriesStr)
	if i < 0 {
		return nil
	}
	c := l.At(i)
	var b strings.Builder
	for _, word := range strings.Fields(stripPunct(c.Str)) {
		b.WriteString(string([]rune(word)[:1]))
	}
	c.Str = b.String()
	return nil
}

func ssFirst(l *List, args []Arg) error {
	i := l.Find(TagSeriesStr)
	if i < 0 {
		return nil
	}
	firstN := 3
	if len(args) > 0 {
		n, err := args[0].AsInt()
		if err != nil {
			return err
		}
		firstN = n
	}
	c := l.At(i)
	var b strings.Builder
	for _, word := range strings.Fields(stripPunct(c.Str)) {
		b.WriteString(capitalize(truncRunes(word, firstN)))
	}
	c.Str = b.String()
	return nil
}

func ssMaxLen(l *List, args []Arg) error {
	i := l.Find(TagSeriesStr)
	if i < 0 {
		return nil
	}
	maxLen := 30
	if len(args) > 0 {
		n, err := args[0].AsInt()
		if err != nil {
			return err
		}
		maxLen = n
	}
	c := l.At(i)
	c.Str = truncRunes(c.Str, maxLen)
	return nil
}

// asciiPunct is the ASCII punctuation set stripped by the abbreviating
// rules.
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunct, r) {
			return -1
		}
		return r
	}, s)
}

func truncRunes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
