package namegen

import (
	"fmt"

	"fascicle/internal/model"
)

// The legacy rules reproduce the naming the tool used before the rule
// DSL existed, in a single call that bypasses the generic reduction.
// They also serve as the fallbacks of the override strategy.

// LegacyTitle builds the historical title for the addressed scope.
func LegacyTitle(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags) string {
	if len(parts) == 1 {
		title := parts[0].Raw.Title
		if fc.Final {
			title += " [Final]"
		}
		return title
	}

	first, last := parts[0], parts[len(parts)-1]
	if len(volumes) > 1 {
		base := series.Raw.Title
		nums := make([]string, len(volumes))
		for i, v := range volumes {
			nums[i] = fmt.Sprintf("%d", v.Num)
		}
		partSegment := fmt.Sprintf("Parts %d.%d to %d.%d",
			first.Volume.Num, first.NumInVolume, last.Volume.Num, last.NumInVolume)
		if fc.Final {
			partSegment += " - Final"
		}
		colon := ":"
		if endsWithPunct(base) {
			colon = ""
		}
		return fmt.Sprintf("%s%s Volumes %s [%s]", base, colon, joinAmpersand(nums), partSegment)
	}

	base := volumes[0].Raw.Title
	partSegment := fmt.Sprintf("Parts %d to %d", first.NumInVolume, last.NumInVolume)
	if fc.Complete {
		partSegment = "Complete"
	} else if fc.Final {
		partSegment += " - Final"
	}
	return fmt.Sprintf("%s [%s]", base, partSegment)
}

// LegacyFileName is the historical file name: the legacy title made safe.
func LegacyFileName(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags) string {
	return ToSafeFilename(LegacyTitle(series, volumes, parts, fc), "_", "")
}

// LegacyFolder is the historical folder name: the series title made safe.
func LegacyFolder(series *model.Series, _ []*model.Volume, _ []*model.Part, _ model.CompletionFlags) string {
	return ToSafeFoldername(series.Raw.Title, "_")
}

// legacyTitleRule rebuilds the engine inputs from whichever components
// are present and resets the list to the legacy title.
func legacyTitleRule(l *List, _ []Arg) error {
	fi := l.Find(TagFlags)
	if fi < 0 {
		return fmt.Errorf("no completion flags component")
	}
	fc := l.At(fi).Flags

	if i := l.Find(TagPart); i >= 0 {
		part := l.At(i).Part
		title := LegacyTitle(part.Volume.Series, []*model.Volume{part.Volume}, []*model.Part{part}, fc)
		l.Reset(newStringComponent(title))
		return nil
	}
	if i := l.Find(TagSeries); i >= 0 {
		vi := l.Find(TagVolNum)
		pi := l.Find(TagPartNum)
		if vi < 0 || pi < 0 {
			return fmt.Errorf("series shape needs volume and part number components")
		}
		title := LegacyTitle(l.At(i).Series, l.At(vi).VolNumsBase, l.At(pi).NumsBase, fc)
		l.Reset(newStringComponent(title))
		return nil
	}
	if i := l.Find(TagVolume); i >= 0 {
		pi := l.Find(TagPartNum)
		if pi < 0 {
			return fmt.Errorf("volume shape needs a part number component")
		}
		volume := l.At(i).Volume
		title := LegacyTitle(volume.Series, []*model.Volume{volume}, l.At(pi).NumsBase, fc)
		l.Reset(newStringComponent(title))
		return nil
	}
	return fmt.Errorf("no part, volume or series component")
}

// legacyFolderRule resets the list to the folder-safe series title,
// reached from whichever component still carries the series.
func legacyFolderRule(l *List, _ []Arg) error {
	var series *model.Series
	switch {
	case l.Find(TagPart) >= 0:
		series = l.At(l.Find(TagPart)).Part.Volume.Series
	case l.Find(TagVolume) >= 0:
		series = l.At(l.Find(TagVolume)).Volume.Series
	case l.Find(TagSeries) >= 0:
		series = l.At(l.Find(TagSeries)).Series
	default:
		return fmt.Errorf("no part, volume or series component")
	}
	l.Reset(newStringComponent(ToSafeFoldername(series.Raw.Title, "_")))
	return nil
}
