package namegen

import "fascicle/internal/model"

// Part rules expand or collapse the single-part component produced by the
// one-part initialization shape.

func pToVolume(l *List, _ []Arg) error {
	i := l.Find(TagPart)
	if i < 0 {
		return nil
	}
	part := l.At(i).Part
	l.ReplaceAt(i,
		newVolumeComponent(part.Volume),
		newPartNumComponent([]*model.Part{part}),
	)
	return nil
}

func pToSeries(l *List, _ []Arg) error {
	i := l.Find(TagPart)
	if i < 0 {
		return nil
	}
	part := l.At(i).Part
	volume := part.Volume
	l.ReplaceAt(i,
		newSeriesComponent(volume.Series),
		newVolNumComponent([]*model.Volume{volume}),
		newPartNumComponent([]*model.Part{part}),
	)
	return nil
}

// pSplitPart expands like p_to_volume; part titles carry no compound
// labels worth parsing.
func pSplitPart(l *List, _ []Arg) error {
	return pToVolume(l, nil)
}

func pTitle(l *List, _ []Arg) error {
	i := l.Find(TagPart)
	if i < 0 {
		return nil
	}
	l.ReplaceAt(i, newStringComponent(l.At(i).Part.Raw.Title))
	return nil
}
