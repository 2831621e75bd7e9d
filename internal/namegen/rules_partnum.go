package namegen

import "fmt"

// Part number rules. The payload is one rendered number per addressed
// part, parallel to the NumsBase part list.

func pnRm(l *List, _ []Arg) error {
	i := l.Find(TagPartNum)
	if i < 0 {
		return nil
	}
	l.DeleteAt(i)
	return nil
}

func pnRmIfComplete(l *List, _ []Arg) error {
	i := l.Find(TagPartNum)
	if i < 0 {
		return nil
	}
	fi := l.Find(TagFlags)
	if fi < 0 {
		return nil
	}
	if l.At(fi).Flags.Complete {
		l.DeleteAt(i)
	}
	return nil
}

func pnPrependVnIfMultiple(l *List, _ []Arg) error {
	pi := l.Find(TagPartNum)
	if pi < 0 {
		return nil
	}
	vi := l.Find(TagVolNum)
	if vi < 0 {
		return nil
	}
	vn := l.At(vi)
	if len(vn.VolNums) == 1 {
		return nil
	}
	return prependVolumeNumbers(l.At(pi), vn)
}

func pnPrependVn(l *List, _ []Arg) error {
	pi := l.Find(TagPartNum)
	if pi < 0 {
		return nil
	}
	vi := l.Find(TagVolNum)
	if vi < 0 {
		return nil
	}
	return prependVolumeNumbers(l.At(pi), l.At(vi))
}

// prependVolumeNumbers rewrites each part number to "<vn>.<pn>" using the
// owning volume's (merged) number, located through the base lists.
func prependVolumeNumbers(pn, vn *Component) error {
	if len(pn.NumsBase) != len(pn.Nums) {
		return fmt.Errorf("part number payload out of sync with its base (%d vs %d)", len(pn.Nums), len(pn.NumsBase))
	}
	for i, part := range pn.NumsBase {
		vi := -1
		for j, v := range vn.VolNumsBase {
			if v == part.Volume {
				vi = j
				break
			}
		}
		if vi < 0 {
			return fmt.Errorf("part %d has no matching volume number", part.NumInVolume)
		}
		pn.Nums[i] = vn.VolNums[vi].mergedValue() + "." + pn.Nums[i]
	}
	return nil
}

func pnZeroPad(l *List, _ []Arg) error {
	i := l.Find(TagPartNum)
	if i < 0 {
		return nil
	}
	c := l.At(i)
	for j, n := range c.Nums {
		c.Nums[j] = zfill(n, 2)
	}
	return nil
}

func pnShort(l *List, _ []Arg) error {
	i := l.Find(TagPartNum)
	if i < 0 {
		return nil
	}
	nums := l.At(i).Nums
	if len(nums) == 0 {
		return fmt.Errorf("empty part number payload")
	}
	output := nums[0]
	if len(nums) > 1 {
		output = nums[0] + "-" + nums[len(nums)-1]
	}
	l.ReplaceAt(i, newStringComponent(output))
	return nil
}

func pnFull(l *List, _ []Arg) error {
	i := l.Find(TagPartNum)
	if i < 0 {
		return nil
	}
	nums := l.At(i).Nums
	if len(nums) == 0 {
		return fmt.Errorf("empty part number payload")
	}
	output := "Part " + nums[0]
	if len(nums) > 1 {
		output = fmt.Sprintf("Parts %s to %s", nums[0], nums[len(nums)-1])
	}
	l.ReplaceAt(i, newStringComponent(output))
	return nil
}

// zfill left-pads with zeros to the given width, like Python's str.zfill.
func zfill(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
