// Package partspec parses and evaluates textual part range specifications.
//
// A specification addresses parts of a series by volume and part number:
//
//	"3"      whole volume 3
//	"3.7"    part 7 of volume 3
//	"3:"     start of volume 3 through the end of available content
//	":3"     everything up to the end of volume 3
//	"1.5:3"  part 5 of volume 1 through the end of volume 3
//	":"      the whole series
//
// Volume and part numbers are 1-based positions in publication order, not
// publisher identifiers.
package partspec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fascicle/internal/model"
)

// rangeSep separates the two sides of an interval specification.
const rangeSep = ":"

// sideRe matches one side of a specification: "vol" or "vol.part", with
// optional surrounding whitespace.
var sideRe = regexp.MustCompile(`^\s*(\d+)(?:\.(\d+))?\s*$`)

// Spec is a sealed interface representing a parsed part specification.
// Only WholeSeries, WholeVolume, SinglePart, and Range implement this.
// Predicates are self-contained: HasPart checks the volume on its own and
// never requires a prior HasVolume call.
type Spec interface {
	partSpec() // Sealed - only these types implement it

	// HasVolume reports whether any part of the volume at the 1-based
	// position volNum is addressed.
	HasVolume(volNum int) bool

	// HasPart reports whether the part at the 1-based position partNum
	// inside volume volNum is addressed.
	HasPart(volNum, partNum int) bool

	// String renders the specification back in its textual form.
	String() string
}

// WholeSeries addresses every part of the series (":").
type WholeSeries struct{}

func (WholeSeries) partSpec() {}

func (WholeSeries) HasVolume(int) bool { return true }

func (WholeSeries) HasPart(int, int) bool { return true }

func (WholeSeries) String() string { return rangeSep }

// WholeVolume addresses every part of a single volume ("3").
type WholeVolume struct {
	Volume int
}

func (WholeVolume) partSpec() {}

func (s WholeVolume) HasVolume(volNum int) bool { return volNum == s.Volume }

func (s WholeVolume) HasPart(volNum, _ int) bool { return volNum == s.Volume }

func (s WholeVolume) String() string { return strconv.Itoa(s.Volume) }

// SinglePart addresses exactly one part ("3.7").
type SinglePart struct {
	Volume int
	Part   int
}

func (SinglePart) partSpec() {}

func (s SinglePart) HasVolume(volNum int) bool { return volNum == s.Volume }

func (s SinglePart) HasPart(volNum, partNum int) bool {
	return volNum == s.Volume && partNum == s.Part
}

func (s SinglePart) String() string {
	return strconv.Itoa(s.Volume) + "." + strconv.Itoa(s.Part)
}

// Bound is one side of a Range. The zero Bound is an open side (no limit in
// that direction). A Bound with Part 0 stops at a volume edge: the whole
// volume is inside the range.
type Bound struct {
	Volume int
	Part   int
}

func (b Bound) open() bool { return b.Volume == 0 }

func (b Bound) String() string {
	if b.open() {
		return ""
	}
	if b.Part == 0 {
		return strconv.Itoa(b.Volume)
	}
	return strconv.Itoa(b.Volume) + "." + strconv.Itoa(b.Part)
}

// Range addresses the parts between two bounds, inclusive ("1.5:3", "3:",
// ":3"). At least one bound is concrete; ":" alone parses as WholeSeries.
type Range struct {
	Start Bound
	End   Bound
}

func (Range) partSpec() {}

func (r Range) HasVolume(volNum int) bool {
	if !r.Start.open() && volNum < r.Start.Volume {
		return false
	}
	if !r.End.open() && volNum > r.End.Volume {
		return false
	}
	return true
}

func (r Range) HasPart(volNum, partNum int) bool {
	if !r.HasVolume(volNum) {
		return false
	}
	if !r.Start.open() && volNum == r.Start.Volume && r.Start.Part != 0 && partNum < r.Start.Part {
		return false
	}
	if !r.End.open() && volNum == r.End.Volume && r.End.Part != 0 && partNum > r.End.Part {
		return false
	}
	return true
}

func (r Range) String() string {
	return r.Start.String() + rangeSep + r.End.String()
}

// FromPart returns the specification addressing exactly part, e.g. "3.7".
// The track store records the last downloaded part in this form.
func FromPart(part *model.Part) SinglePart {
	return SinglePart{Volume: part.Volume.Num, Part: part.NumInVolume}
}

// Parse converts a textual specification into a Spec. The empty string,
// malformed sides, more than one range separator, and zero volume or part
// numbers are rejected.
func Parse(text string) (Spec, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errors.New("empty part specification")
	}
	if trimmed == rangeSep {
		return WholeSeries{}, nil
	}

	sides := strings.Split(trimmed, rangeSep)
	if len(sides) > 2 {
		return nil, fmt.Errorf("more than one %q in part specification %q", rangeSep, text)
	}

	if len(sides) == 1 {
		b, ok := parseSide(sides[0])
		if !ok {
			return nil, fmt.Errorf("invalid part specification %q: must be vol[.part]", text)
		}
		if err := checkPositive(text, b); err != nil {
			return nil, err
		}
		if b.Part < 0 {
			return WholeVolume{Volume: b.Volume}, nil
		}
		return SinglePart{Volume: b.Volume, Part: b.Part}, nil
	}

	var r Range
	for i, side := range sides {
		if strings.TrimSpace(side) == "" {
			continue
		}
		b, ok := parseSide(side)
		if !ok {
			return nil, fmt.Errorf(
				"invalid part specification %q: must be vol[.part]:vol[.part], vol[.part]: or :vol[.part]", text)
		}
		if err := checkPositive(text, b); err != nil {
			return nil, err
		}
		if b.Part < 0 {
			b.Part = 0
		}
		if i == 0 {
			r.Start = b
		} else {
			r.End = b
		}
	}
	return r, nil
}

// parseSide extracts the volume and optional part number from one side of a
// specification. An omitted part is reported as -1 so that an explicit ".0"
// stays distinguishable for validation.
func parseSide(side string) (Bound, bool) {
	m := sideRe.FindStringSubmatch(side)
	if m == nil {
		return Bound{}, false
	}
	vol, err := strconv.Atoi(m[1])
	if err != nil {
		return Bound{}, false
	}
	part := -1
	if m[2] != "" {
		part, err = strconv.Atoi(m[2])
		if err != nil {
			return Bound{}, false
		}
	}
	return Bound{Volume: vol, Part: part}, true
}

// checkPositive rejects zero numbers. An omitted part (-1) passes; an
// explicit ".0" does not.
func checkPositive(text string, b Bound) error {
	if b.Volume < 1 {
		return fmt.Errorf("invalid part specification %q: volume numbers start at 1", text)
	}
	if b.Part == 0 {
		return fmt.Errorf("invalid part specification %q: part numbers start at 1", text)
	}
	return nil
}
