// Package namegen implements the naming rule engine.
//
// The engine derives the three output strings of a generated book (title,
// file name, folder name) from series/volume/part metadata, driven by a
// small rule DSL:
//
//	t:fc_short>p_title | n:_t>str_filesafe | f:legacy_f
//
// A ruleset has up to three sections (t, n, f), each an ordered chain of
// rule calls applied to a mutable list of tagged components. Each section
// run starts from a component list initialized from the metadata shape
// (single part, single volume, or multi volume), reduces it through the
// chain, and must end with exactly one non-empty String component. The
// special marker _t, legal only in first position of the n and f sections,
// seeds the run with a deep copy of the previous section's result instead.
//
// ARCHITECTURE:
//
// Straight-line reduction:
// Rule text -> lexer/parser -> validated per-section chains -> three
// sequential section runs -> three strings. There is no branching or
// looping inside a chain; all branching happens at initialization and
// inside individual rule bodies. A rule whose target tag is absent is a
// silent no-op, so one chain can serve sections with different initial
// component sets.
//
// The registry is a static name -> function table built at init time.
// Rules share one signature and mutate the component list in place through
// index-based splicing. Rule arguments are checked by the rules themselves
// at call time, not statically.
//
// The engine is pure computation: no I/O except the one-time load of the
// embedded stopword lists, memoized per language. Errors are structured
// (*RulesError) and fatal to the whole naming operation; no partial names
// are ever returned.
package namegen
