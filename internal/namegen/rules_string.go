package namegen

import (
	"strings"
	"unicode/utf8"
)

// Terminal string rules. to_string is also the implicit join the pipeline
// runs when a chain ends without a single String component.

func toString(l *List, args []Arg) error {
	addColon := 0
	if len(args) > 0 {
		n, err := args[0].AsInt()
		if err != nil {
			return err
		}
		addColon = n
	}
	joinToString(l, addColon != 0)
	return nil
}

// joinToString concatenates the String and SeriesString values with
// single spaces, skipping empties, and collapses the list to one String.
// Components of any other tag are dropped. With addColon, a SeriesString
// not already ending in punctuation gets a ":" appended.
func joinToString(l *List, addColon bool) {
	var vals []string
	for i := 0; i < l.Len(); i++ {
		c := l.At(i)
		switch c.Tag {
		case TagSeriesStr:
			if c.Str == "" {
				continue
			}
			v := c.Str
			if addColon && !endsWithPunct(v) {
				v += ":"
			}
			vals = append(vals, v)
		case TagString:
			if c.Str == "" {
				continue
			}
			vals = append(vals, c.Str)
		}
	}
	l.Reset(newStringComponent(strings.Join(vals, " ")))
}

// implicitString returns the String component, running the implicit join
// first when none exists. An empty joined value is an error; an empty
// pre-existing String is left to the final reduction check.
func implicitString(l *List) (*Component, error) {
	if i := l.Find(TagString); i >= 0 {
		return l.At(i), nil
	}
	joinToString(l, false)
	c := l.At(0)
	if c.Str == "" {
		return nil, NewEmptyStringError()
	}
	return c, nil
}

func strRmSpace(l *List, _ []Arg) error {
	c, err := implicitString(l)
	if err != nil {
		return err
	}
	c.Str = strings.ReplaceAll(c.Str, " ", "")
	return nil
}

func strReplaceSpace(l *List, args []Arg) error {
	replace := "_"
	if len(args) > 0 {
		s, err := args[0].AsString()
		if err != nil {
			return err
		}
		replace = s
	}
	c, err := implicitString(l)
	if err != nil {
		return err
	}
	c.Str = strings.ReplaceAll(c.Str, " ", replace)
	return nil
}

func strFilesafe(l *List, args []Arg) error {
	replace := "_"
	preserve := ""
	if len(args) > 0 {
		s, err := args[0].AsString()
		if err != nil {
			return err
		}
		replace = s
	}
	if len(args) > 1 {
		s, err := args[1].AsString()
		if err != nil {
			return err
		}
		preserve = s
	}
	c, err := implicitString(l)
	if err != nil {
		return err
	}
	c.Str = ToSafeFilename(c.Str, replace, preserve)
	return nil
}

func endsWithPunct(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(asciiPunct, r)
}
