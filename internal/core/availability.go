package core

import (
	"time"

	"fascicle/internal/model"
)

// PartInFuture reports whether the part has not launched yet. Parts with
// no launch date count as launched.
func PartInFuture(now time.Time, part *model.Part) bool {
	launch := part.LaunchTime()
	return !launch.IsZero() && launch.After(now)
}

// PartAvailable reports whether the prepub content of a part can be
// downloaded right now.
//
// Launched previews are free for everyone, owned volumes stay readable
// forever, and everything else needs a membership. Members read catchup
// series and unscheduled volumes without limit; otherwise the prepub is
// gone once the volume's expiration date passes.
func PartAvailable(now time.Time, member bool, part *model.Part) bool {
	if PartInFuture(now, part) {
		return false
	}
	if part.Raw.Preview {
		return true
	}
	if part.Volume.Raw.Owned {
		return true
	}
	if !member {
		return false
	}
	if part.Volume.Series.Raw.Catchup {
		return true
	}
	pub := part.Volume.PublishingTime()
	if pub.IsZero() {
		return true
	}
	return ExpirationDate(pub).After(now)
}

// ExpirationDate computes when the prepub of a volume published on pub
// stops being readable: midnight UTC on the 15th of the publication month,
// pushed to the next month when publication falls on or after the 9th, and
// moved off weekends to the following Monday.
func ExpirationDate(pub time.Time) time.Time {
	pub = pub.UTC()
	month := pub.Month()
	if pub.Day() >= 9 {
		month++ // time.Date normalizes month 13
	}
	exp := time.Date(pub.Year(), month, 15, 0, 0, 0, 0, time.UTC)
	switch exp.Weekday() {
	case time.Sunday:
		exp = exp.AddDate(0, 0, 1)
	case time.Saturday:
		exp = exp.AddDate(0, 0, 2)
	}
	return exp
}

// VolumeAvailable reports whether every launched part of the volume is
// still downloadable. A volume with no launched parts is not available.
func VolumeAvailable(now time.Time, member bool, volume *model.Volume) bool {
	if len(volume.Parts) == 0 {
		return false
	}
	for _, part := range volume.Parts {
		if !PartAvailable(now, member, part) {
			return false
		}
	}
	return true
}
