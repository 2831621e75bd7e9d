package partspec

import "fascicle/internal/model"

// Selection is the outcome of applying a Spec to series content: the
// addressed parts in publication order, the volumes they belong to, and the
// completion flags for the naming engine.
type Selection struct {
	Volumes []*model.Volume
	Parts   []*model.Part
	Flags   model.CompletionFlags
}

// IsEmpty reports whether no part was addressed. An empty selection is not
// an error at this level: callers decide whether missing content is fatal.
func (s Selection) IsEmpty() bool { return len(s.Parts) == 0 }

// Select applies sp to the series. Volumes listed by the publisher without
// any launched part are skipped; the volumes of the selection appear in the
// order of their first selected part.
func Select(series *model.Series, sp Spec) Selection {
	var volumes []*model.Volume
	var parts []*model.Part
	for _, volume := range series.Volumes {
		if len(volume.Parts) == 0 {
			continue
		}
		first := true
		for _, part := range volume.Parts {
			if !sp.HasPart(volume.Num, part.NumInVolume) {
				continue
			}
			if first {
				volumes = append(volumes, volume)
				first = false
			}
			parts = append(parts, part)
		}
	}
	return Selection{
		Volumes: volumes,
		Parts:   parts,
		Flags:   Flags(volumes, parts),
	}
}

// SelectionOf wraps an explicit part list as a Selection, deriving the
// volume list and completion flags. The parts must be in publication
// order. Used when parts are picked by something other than a textual
// specification, such as launch dates.
func SelectionOf(parts []*model.Part) Selection {
	var volumes []*model.Volume
	for _, part := range parts {
		if len(volumes) == 0 || volumes[len(volumes)-1] != part.Volume {
			volumes = append(volumes, part.Volume)
		}
	}
	return Selection{
		Volumes: volumes,
		Parts:   parts,
		Flags:   Flags(volumes, parts),
	}
}

// Flags derives the completion flags for a group of selected parts.
//
// TotalParts is only reported by the publisher for some volumes, so both
// flags default to false when it is absent. Complete additionally requires
// the selection to cover exactly one volume: a multi-volume book is never
// "complete" even if each of its volumes is.
func Flags(volumes []*model.Volume, parts []*model.Part) model.CompletionFlags {
	var fc model.CompletionFlags
	if len(parts) == 0 {
		return fc
	}

	last := parts[len(parts)-1]
	if total := last.Volume.Raw.TotalParts; total > 0 && last.NumInVolume == total {
		fc.Final = true
	}

	if len(volumes) == 1 {
		if total := volumes[0].Raw.TotalParts; total > 0 && total == len(parts) {
			fc.Complete = true
		}
	}
	return fc
}
