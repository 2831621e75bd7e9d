package namegen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fascicle/internal/model"
)

// Volume and volume number rules. A compound number keeps the (value,
// kind) pairs parsed out of a volume title, in title order.

var (
	volumeLabelRe = regexp.MustCompile(`Volume (\d+)`)
	partLabelRe   = regexp.MustCompile(`Part (\w+)`)
)

// enNumbers maps the English number words seen in volume labels to
// digits. Publishers have not gone past twenty.
var enNumbers = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	"eleven": "11", "twelve": "12", "thirteen": "13", "fourteen": "14",
	"fifteen": "15", "sixteen": "16", "seventeen": "17", "eighteen": "18",
	"nineteen": "19", "twenty": "20",
}

func vToSeries(l *List, _ []Arg) error {
	i := l.Find(TagVolume)
	if i < 0 {
		return nil
	}
	volume := l.At(i).Volume
	l.ReplaceAt(i,
		newSeriesComponent(volume.Series),
		newVolNumComponent([]*model.Volume{volume}),
	)
	return nil
}

// vSplitVolume parses a compound number out of the volume title by
// diffing it against the series title. Titles that do not extend the
// series title are left alone.
func vSplitVolume(l *List, _ []Arg) error {
	i := l.Find(TagVolume)
	if i < 0 {
		return nil
	}
	volume := l.At(i).Volume
	series := volume.Series
	diff, ok := strings.CutPrefix(volume.Raw.Title, series.Raw.Title)
	if !ok || diff == "" {
		return nil
	}
	label := strings.TrimSpace(strings.Trim(diff, ":"))
	vn := &Component{
		Tag:         TagVolNum,
		VolNums:     []Compound{parseVolumeLabel(label)},
		VolNumsBase: []*model.Volume{volume},
	}
	l.ReplaceAt(i, newSeriesComponent(series), vn)
	return nil
}

// parseVolumeLabel extracts "Volume <digits>" and "Part <word>" pairs from
// a title label, ordered by their position in the label. A label matching
// neither is kept whole as a special pair ("Short Stories").
func parseVolumeLabel(label string) Compound {
	type hit struct {
		pos  int
		pair VNPair
	}
	var hits []hit
	if m := volumeLabelRe.FindStringSubmatch(label); m != nil {
		hits = append(hits, hit{strings.Index(label, "Volume"), VNPair{Value: m[1], Kind: KindVolumeWord}})
	}
	if m := partLabelRe.FindStringSubmatch(label); m != nil {
		hits = append(hits, hit{strings.Index(label, "Part"), VNPair{Value: m[1], Kind: KindPartWord}})
	}
	if len(hits) == 0 {
		return Compound{{Value: label, Kind: KindSpecial}}
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })
	vn := make(Compound, len(hits))
	for i, h := range hits {
		vn[i] = h.pair
	}
	return vn
}

func vTitle(l *List, _ []Arg) error {
	i := l.Find(TagVolume)
	if i < 0 {
		return nil
	}
	l.ReplaceAt(i, newStringComponent(l.At(i).Volume.Raw.Title))
	return nil
}

func vnRm(l *List, _ []Arg) error {
	i := l.Find(TagVolNum)
	if i < 0 {
		return nil
	}
	l.DeleteAt(i)
	return nil
}

func vnRmIfPn(l *List, _ []Arg) error {
	i := l.Find(TagVolNum)
	if i < 0 {
		return nil
	}
	if l.Find(TagPartNum) < 0 {
		return nil
	}
	l.DeleteAt(i)
	return nil
}

// vnNumber turns English number words (one..twenty) into digits, so
// labels like "Part Four" sort and pad like their numeric siblings.
func vnNumber(l *List, _ []Arg) error {
	i := l.Find(TagVolNum)
	if i < 0 {
		return nil
	}
	for _, vn := range l.At(i).VolNums {
		for j, p := range vn {
			if n, ok := enNumbers[strings.ToLower(p.Value)]; ok {
				vn[j].Value = n
			}
		}
	}
	return nil
}

func vnMerge(l *List, _ []Arg) error {
	i := l.Find(TagVolNum)
	if i < 0 {
		return nil
	}
	mergeCompounds(l.At(i))
	return nil
}

func mergeCompounds(c *Component) {
	for i, vn := range c.VolNums {
		if len(vn) > 1 {
			c.VolNums[i] = Compound{{Value: vn.mergedValue(), Kind: KindMerged}}
		}
	}
}

func vnZeroPad(l *List, _ []Arg) error {
	i := l.Find(TagVolNum)
	if i < 0 {
		return nil
	}
	for _, vn := range l.At(i).VolNums {
		for j, p := range vn {
			vn[j].Value = zfill(p.Value, 2)
		}
	}
	return nil
}

func vnShort(l *List, _ []Arg) error {
	i := l.Find(TagVolNum)
	if i < 0 {
		return nil
	}
	c := l.At(i)
	mergeCompounds(c)
	if len(c.VolNums) == 0 {
		return fmt.Errorf("empty volume number payload")
	}
	output := c.VolNums[0][0].Value
	if len(c.VolNums) > 1 {
		output = output + "-" + c.VolNums[len(c.VolNums)-1][0].Value
	}
	l.ReplaceAt(i, newStringComponent(output))
	return nil
}

func vnFull(l *List, _ []Arg) error {
	i := l.Find(TagVolNum)
	if i < 0 {
		return nil
	}
	c := l.At(i)
	if len(c.VolNums) == 0 {
		return fmt.Errorf("empty volume number payload")
	}
	var output string
	if len(c.VolNums) > 1 {
		mergeCompounds(c)
		vals := make([]string, len(c.VolNums))
		for j, vn := range c.VolNums {
			vals[j] = vn[0].Value
		}
		output = "Volumes " + joinAmpersand(vals)
	} else if vn := c.VolNums[0]; len(vn) > 1 {
		// compound preserved, e.g. "Part 5 Volume 2"
		rendered := make([]string, len(vn))
		for j, p := range vn {
			if p.Kind == KindSpecial {
				rendered[j] = p.Value
			} else {
				rendered[j] = string(p.Kind) + " " + p.Value
			}
		}
		output = strings.Join(rendered, " ")
	} else if vn[0].Kind == KindSpecial {
		output = vn[0].Value
	} else {
		output = "Volume " + vn[0].Value
	}
	l.ReplaceAt(i, newStringComponent(output))
	return nil
}

// joinAmpersand renders "a, b & c" from two or more values.
func joinAmpersand(vals []string) string {
	return strings.Join(vals[:len(vals)-1], ", ") + " & " + vals[len(vals)-1]
}
