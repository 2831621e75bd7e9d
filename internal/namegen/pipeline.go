package namegen

import (
	"log/slog"

	"fascicle/internal/model"
)

// NameFunc computes one output string from the addressed scope.
type NameFunc func(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags) (string, error)

// Overrides supplies caller code for any of the three outputs, tried
// before the rule pipeline. A nil field falls back: Title to LegacyTitle,
// FileName to the file-safe form of the title generated in the same run,
// Folder to LegacyFolder. Overrides know nothing about components or
// chains.
type Overrides struct {
	Title    NameFunc
	FileName NameFunc
	Folder   NameFunc
}

// Names is the three-string output of the engine.
type Names struct {
	Title    string
	FileName string
	Folder   string
}

// Generator derives the three names for a book. Build one per tool
// invocation; it is immutable and safe for reuse across books.
type Generator struct {
	rules     *ParsedRules
	overrides *Overrides
}

// NewGenerator compiles and validates rule text. Empty text selects
// DefaultRules.
func NewGenerator(ruleText string) (*Generator, error) {
	rules, err := ParseRules(ruleText)
	if err != nil {
		return nil, err
	}
	return &Generator{rules: rules}, nil
}

// NewOverrideGenerator builds a generator around caller-supplied strategy
// functions instead of the rule pipeline.
func NewOverrideGenerator(o Overrides) *Generator {
	return &Generator{overrides: &o}
}

// Generate produces the names for the addressed scope.
func (g *Generator) Generate(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags) (Names, error) {
	if g.overrides != nil {
		return g.overrides.generate(series, volumes, parts, fc)
	}
	return GenerateNames(series, volumes, parts, fc, g.rules)
}

func (o *Overrides) generate(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags) (Names, error) {
	var names Names
	var err error

	if o.Title != nil {
		if names.Title, err = o.Title(series, volumes, parts, fc); err != nil {
			return Names{}, err
		}
	} else {
		names.Title = LegacyTitle(series, volumes, parts, fc)
	}

	if o.FileName != nil {
		if names.FileName, err = o.FileName(series, volumes, parts, fc); err != nil {
			return Names{}, err
		}
	} else {
		names.FileName = ToSafeFilename(names.Title, "_", "")
	}

	if o.Folder != nil {
		if names.Folder, err = o.Folder(series, volumes, parts, fc); err != nil {
			return Names{}, err
		}
	} else {
		names.Folder = LegacyFolder(series, volumes, parts, fc)
	}

	return names, nil
}

// GenerateNames runs the three section pipelines in order. Each section
// reduces its component list through its chain and must end with exactly
// one non-empty String component; a list in any other shape is first
// collapsed by the implicit join, then re-checked. All errors abort the
// whole operation; no partial names are returned.
func GenerateNames(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags, rules *ParsedRules) (Names, error) {
	var outputs []*Component
	for _, section := range sectionOrder {
		list, chain, err := initComponents(series, volumes, parts, fc, rules.Chain(section), outputs)
		if err != nil {
			return Names{}, err
		}
		if err := applyChain(list, chain); err != nil {
			return Names{}, err
		}
		if list.Len() != 1 || list.At(0).Tag != TagString {
			joinToString(list, false)
		}
		if final := list.At(0); list.Len() == 1 && final.Tag == TagString && final.Str != "" {
			outputs = append(outputs, final)
			continue
		}
		return Names{}, NewInvalidRulesError("the %s section must reduce to a single non-empty string", section)
	}
	return Names{
		Title:    outputs[0].Str,
		FileName: outputs[1].Str,
		Folder:   outputs[2].Str,
	}, nil
}

// initComponents seeds a section run: a deep copy of the previous
// section's result when the chain starts with the inherit marker, a
// fresh list shaped by the metadata otherwise.
func initComponents(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags, chain Chain, outputs []*Component) (*List, Chain, error) {
	if len(chain) > 0 && chain[0].Name == InheritMarker {
		// validation guarantees a previous output exists
		if len(outputs) == 0 {
			return nil, nil, NewInvalidRulesError("%s cannot be used in the title section: no previous output to inherit", InheritMarker)
		}
		prev := outputs[len(outputs)-1]
		return NewList(prev.Clone()), chain[1:], nil
	}
	return defaultComponents(series, volumes, parts, fc), chain, nil
}

// defaultComponents builds the initial list from the metadata shape:
// single part, multi volume, or single volume with several parts. The
// completion flags ride along in every shape.
func defaultComponents(series *model.Series, volumes []*model.Volume, parts []*model.Part, fc model.CompletionFlags) *List {
	var comps []*Component
	switch {
	case len(parts) == 1:
		comps = []*Component{newPartComponent(parts[0])}
	case len(volumes) > 1:
		comps = []*Component{
			newSeriesComponent(series),
			newVolNumComponent(volumes),
			newPartNumComponent(parts),
		}
	default:
		comps = []*Component{
			newVolumeComponent(volumes[0]),
			newPartNumComponent(parts),
		}
	}
	return NewList(append(comps, newFlagsComponent(fc))...)
}

// applyChain runs the rule calls in written order. Any failure inside a
// rule body is wrapped with the rule name and arguments.
func applyChain(list *List, chain Chain) error {
	for _, call := range chain {
		slog.Debug("applying rule", "rule", call.Name, "args", call.Args)
		fn, ok := registry[call.Name]
		if !ok {
			return NewInvalidRulesError("invalid rule: %s", call.Name)
		}
		if err := fn(list, call.Args); err != nil {
			return NewRuleCallError(call.Name, call.Args, err)
		}
	}
	return nil
}
