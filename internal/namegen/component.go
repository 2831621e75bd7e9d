package namegen

import (
	"strconv"
	"strings"

	"fascicle/internal/model"
)

// Tag identifies the kind of payload a Component carries.
type Tag int

const (
	// TagFlags carries the CompletionFlags of the addressed scope.
	TagFlags Tag = iota
	// TagPartNum carries one rendered number per addressed part.
	TagPartNum
	// TagVolNum carries one compound number per addressed volume.
	TagVolNum
	// TagPart carries a single resolved part.
	TagPart
	// TagVolume carries a single resolved volume.
	TagVolume
	// TagSeries carries the resolved series.
	TagSeries
	// TagSeriesStr carries a series-derived string still open to ss_* rules.
	TagSeriesStr
	// TagString carries a finished string.
	TagString
)

var tagNames = map[Tag]string{
	TagFlags:     "flags",
	TagPartNum:   "partnum",
	TagVolNum:    "volnum",
	TagPart:      "part",
	TagVolume:    "volume",
	TagSeries:    "series",
	TagSeriesStr: "seriesstr",
	TagString:    "string",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// VNKind classifies one half of a compound volume number pair. The parsed
// kinds KindVolumeWord and KindPartWord double as the literal keyword used
// when the pair is rendered ("Volume 2", "Part Five").
type VNKind string

const (
	// KindInternal marks the series-order volume number assigned at fetch time.
	KindInternal VNKind = "internal"
	// KindMerged marks a compound collapsed to a single dot-joined value.
	KindMerged VNKind = "merged"
	// KindSpecial marks a non-numeric label taken verbatim from the volume
	// title ("Short Stories").
	KindSpecial VNKind = "special"
	// KindVolumeWord marks a number parsed after "Volume" in the title.
	KindVolumeWord VNKind = "Volume"
	// KindPartWord marks an ordinal parsed after "Part" in the title.
	KindPartWord VNKind = "Part"
)

// VNPair is one (value, kind) half of a compound volume number.
type VNPair struct {
	Value string
	Kind  VNKind
}

// Compound is the full number of one volume. Most volumes have a single
// pair; titles like "Alchemist Vol. Part 5 Volume 2" yield two.
type Compound []VNPair

// Component is the mutable unit the engine rewrites. Tag selects which
// payload field is meaningful; the other fields stay zero. NumsBase and
// VolNumsBase retain the metadata a derived PartNum/VolNum payload was
// computed from, for rules that must look back at the source objects.
type Component struct {
	Tag Tag

	Part   *model.Part
	Volume *model.Volume
	Series *model.Series
	Flags  model.CompletionFlags

	Nums    []string
	VolNums []Compound
	Str     string

	NumsBase    []*model.Part
	VolNumsBase []*model.Volume
}

func newPartComponent(p *model.Part) *Component {
	return &Component{Tag: TagPart, Part: p}
}

func newVolumeComponent(v *model.Volume) *Component {
	return &Component{Tag: TagVolume, Volume: v}
}

func newSeriesComponent(s *model.Series) *Component {
	return &Component{Tag: TagSeries, Series: s}
}

func newFlagsComponent(fc model.CompletionFlags) *Component {
	return &Component{Tag: TagFlags, Flags: fc}
}

func newStringComponent(s string) *Component {
	return &Component{Tag: TagString, Str: s}
}

func newSeriesStrComponent(s string) *Component {
	return &Component{Tag: TagSeriesStr, Str: s}
}

// newPartNumComponent derives the default per-part numbers from parts,
// keeping parts as the base.
func newPartNumComponent(parts []*model.Part) *Component {
	nums := make([]string, len(parts))
	for i, p := range parts {
		nums[i] = strconv.Itoa(p.NumInVolume)
	}
	return &Component{Tag: TagPartNum, Nums: nums, NumsBase: parts}
}

// newVolNumComponent derives the default compound numbers from volumes,
// keeping volumes as the base. Each default compound is the single
// internal series-order number.
func newVolNumComponent(volumes []*model.Volume) *Component {
	vns := make([]Compound, len(volumes))
	for i, v := range volumes {
		vns[i] = Compound{{Value: strconv.Itoa(v.Num), Kind: KindInternal}}
	}
	return &Component{Tag: TagVolNum, VolNums: vns, VolNumsBase: volumes}
}

// Clone returns a deep copy of the component. List payloads are copied so
// later mutations cannot reach back into a previous section's result;
// metadata pointers are shared since the engine never mutates metadata.
func (c *Component) Clone() *Component {
	d := *c
	if c.Nums != nil {
		d.Nums = make([]string, len(c.Nums))
		copy(d.Nums, c.Nums)
	}
	if c.VolNums != nil {
		d.VolNums = make([]Compound, len(c.VolNums))
		for i, vn := range c.VolNums {
			d.VolNums[i] = make(Compound, len(vn))
			copy(d.VolNums[i], vn)
		}
	}
	if c.NumsBase != nil {
		d.NumsBase = make([]*model.Part, len(c.NumsBase))
		copy(d.NumsBase, c.NumsBase)
	}
	if c.VolNumsBase != nil {
		d.VolNumsBase = make([]*model.Volume, len(c.VolNumsBase))
		copy(d.VolNumsBase, c.VolNumsBase)
	}
	return &d
}

// List is the component list a section run reduces. Rules mutate it in
// place through the index-based splicing methods.
type List struct {
	comps []*Component
}

// NewList builds a list from the given components.
func NewList(comps ...*Component) *List {
	return &List{comps: comps}
}

// Len returns the number of components.
func (l *List) Len() int { return len(l.comps) }

// At returns the component at index i.
func (l *List) At(i int) *Component { return l.comps[i] }

// Find returns the index of the first component with the given tag, or -1.
func (l *List) Find(tag Tag) int {
	for i, c := range l.comps {
		if c.Tag == tag {
			return i
		}
	}
	return -1
}

// ReplaceAt splices the given components in place of the element at index
// i, preserving the relative order of the rest of the list.
func (l *List) ReplaceAt(i int, comps ...*Component) {
	out := make([]*Component, 0, len(l.comps)-1+len(comps))
	out = append(out, l.comps[:i]...)
	out = append(out, comps...)
	out = append(out, l.comps[i+1:]...)
	l.comps = out
}

// DeleteAt removes the element at index i.
func (l *List) DeleteAt(i int) {
	l.comps = append(l.comps[:i], l.comps[i+1:]...)
}

// Reset collapses the whole list to the given components.
func (l *List) Reset(comps ...*Component) {
	l.comps = comps
}

// mergedValue renders a compound as a single value, dot-joining when the
// compound still has several pairs ("2.5" from Volume 2 Part 5).
func (vn Compound) mergedValue() string {
	if len(vn) == 1 {
		return vn[0].Value
	}
	parts := make([]string, len(vn))
	for i, p := range vn {
		parts[i] = p.Value
	}
	return strings.Join(parts, ".")
}
