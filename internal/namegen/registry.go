package namegen

import "sort"

// ruleFunc is the shared signature of every rule: mutate the component
// list in place, return an error only on a genuine failure (absent target
// tags are silent no-ops).
type ruleFunc func(l *List, args []Arg) error

// registry is the static rule table. It is declared once, never derived
// from source layout, and never extended at run time.
var registry = map[string]ruleFunc{
	"fc_rm":             fcRm,
	"fc_rm_if_complete": fcRmIfComplete,
	"fc_short":          fcShort,
	"fc_full":           fcFull,

	"p_to_volume":  pToVolume,
	"p_to_series":  pToSeries,
	"p_split_part": pSplitPart,
	"p_title":      pTitle,

	"pn_rm":                     pnRm,
	"pn_rm_if_complete":         pnRmIfComplete,
	"pn_prepend_vn_if_multiple": pnPrependVnIfMultiple,
	"pn_prepend_vn":             pnPrependVn,
	"pn_0pad":                   pnZeroPad,
	"pn_short":                  pnShort,
	"pn_full":                   pnFull,

	"v_to_series":    vToSeries,
	"v_split_volume": vSplitVolume,
	"v_title":        vTitle,

	"vn_rm":       vnRm,
	"vn_rm_if_pn": vnRmIfPn,
	"vn_number":   vnNumber,
	"vn_merge":    vnMerge,
	"vn_0pad":     vnZeroPad,
	"vn_short":    vnShort,
	"vn_full":     vnFull,

	"to_series": toSeries,
	"s_title":   sTitle,
	"s_slug":    sSlug,

	"ss_rm_stopwords": ssRmStopwords,
	"ss_rm_subtitle":  ssRmSubtitle,
	"ss_acronym":      ssAcronym,
	"ss_first":        ssFirst,
	"ss_max_len":      ssMaxLen,

	"legacy_t": legacyTitleRule,
	"legacy_f": legacyFolderRule,

	"to_string":         toString,
	"str_rm_space":      strRmSpace,
	"str_replace_space": strReplaceSpace,
	"str_filesafe":      strFilesafe,

	// Reserved: validation strips the marker before execution; reaching
	// this function means it was invoked directly.
	InheritMarker: func(_ *List, _ []Arg) error {
		return NewInvalidRulesError("%s must be the first rule of its section", InheritMarker)
	},
}

// RuleNames returns every registered rule name, sorted, including the
// inherit marker.
func RuleNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
