package namegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Ruleset Parsing Tests
// =============================================================================

func TestParseRules_ThreeSections(t *testing.T) {
	rules, err := ParseRules("t:fc_short>p_title|n:_t>str_filesafe|f:legacy_f")
	require.NoError(t, err)

	require.Len(t, rules.Title, 2)
	assert.Equal(t, "fc_short", rules.Title[0].Name)
	assert.Equal(t, "p_title", rules.Title[1].Name)

	require.Len(t, rules.FileName, 2)
	assert.Equal(t, InheritMarker, rules.FileName[0].Name)
	assert.Equal(t, "str_filesafe", rules.FileName[1].Name)

	require.Len(t, rules.Folder, 1)
	assert.Equal(t, "legacy_f", rules.Folder[0].Name)
}

func TestParseRules_EmptyTextSelectsDefaults(t *testing.T) {
	rules, err := ParseRules("")
	require.NoError(t, err)

	require.Len(t, rules.Title, 1)
	assert.Equal(t, "legacy_t", rules.Title[0].Name)
	require.Len(t, rules.FileName, 2)
	assert.Equal(t, InheritMarker, rules.FileName[0].Name)
	assert.Equal(t, "str_filesafe", rules.FileName[1].Name)
	require.Len(t, rules.Folder, 1)
	assert.Equal(t, "legacy_f", rules.Folder[0].Name)

	// Whitespace-only text is treated the same
	ws, err := ParseRules("   \t")
	require.NoError(t, err)
	assert.Equal(t, rules, ws)
}

func TestParseRules_MissingSectionsBackfilledFromDefaults(t *testing.T) {
	rules, err := ParseRules("t:p_title")
	require.NoError(t, err)

	require.Len(t, rules.Title, 1)
	assert.Equal(t, "p_title", rules.Title[0].Name)

	// n and f come from DefaultRules
	require.Len(t, rules.FileName, 2)
	assert.Equal(t, InheritMarker, rules.FileName[0].Name)
	require.Len(t, rules.Folder, 1)
	assert.Equal(t, "legacy_f", rules.Folder[0].Name)
}

func TestParseRules_UnprefixedChainIsTitle(t *testing.T) {
	rules, err := ParseRules("fc_rm>p_title")
	require.NoError(t, err)

	require.Len(t, rules.Title, 2)
	assert.Equal(t, "fc_rm", rules.Title[0].Name)
	assert.Equal(t, "p_title", rules.Title[1].Name)
}

func TestParseRules_SectionsInAnyOrder(t *testing.T) {
	rules, err := ParseRules("f:legacy_f|t:p_title")
	require.NoError(t, err)

	assert.Equal(t, "p_title", rules.Title[0].Name)
	assert.Equal(t, "legacy_f", rules.Folder[0].Name)
	// FileName backfilled
	assert.Equal(t, InheritMarker, rules.FileName[0].Name)
}

func TestParseRules_WhitespaceBetweenTokens(t *testing.T) {
	rules, err := ParseRules(" t : fc_short > p_title | n : _t > str_filesafe ")
	require.NoError(t, err)

	assert.Equal(t, "fc_short", rules.Title[0].Name)
	assert.Equal(t, "p_title", rules.Title[1].Name)
	assert.Equal(t, InheritMarker, rules.FileName[0].Name)
}

func TestParseRules_Arguments(t *testing.T) {
	rules, err := ParseRules("t:ss_first(5)>ss_max_len(30)>str_filesafe(\"-\",\"_\")")
	require.NoError(t, err)

	require.Len(t, rules.Title, 3)

	first := rules.Title[0]
	require.Len(t, first.Args, 1)
	assert.Equal(t, ArgInt, first.Args[0].Kind)
	n, err := first.Args[0].AsInt()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	safe := rules.Title[2]
	require.Len(t, safe.Args, 2)
	s, err := safe.Args[0].AsString()
	require.NoError(t, err)
	assert.Equal(t, "-", s)
	s, err = safe.Args[1].AsString()
	require.NoError(t, err)
	assert.Equal(t, "_", s)
}

func TestParseRules_EmptyParensAndEmptyString(t *testing.T) {
	rules, err := ParseRules("t:ss_first()>str_filesafe(\"\")")
	require.NoError(t, err)

	assert.Empty(t, rules.Title[0].Args)
	require.Len(t, rules.Title[1].Args, 1)
	assert.Equal(t, "", rules.Title[1].Args[0].StrVal)
}

func TestParseRules_SignedAndFloatArguments(t *testing.T) {
	rules, err := ParseRules("t:ss_max_len(-1)>ss_first(+2)>ss_max_len(1.5)")
	require.NoError(t, err)

	assert.Equal(t, int64(-1), rules.Title[0].Args[0].IntVal)
	assert.Equal(t, int64(2), rules.Title[1].Args[0].IntVal)
	assert.Equal(t, ArgFloat, rules.Title[2].Args[0].Kind)
	assert.Equal(t, 1.5, rules.Title[2].Args[0].FloatVal)
}

// =============================================================================
// Parse Error Tests
// =============================================================================

func TestParseRules_DuplicateSection(t *testing.T) {
	_, err := ParseRules("t:p_title|t:legacy_t")
	require.Error(t, err)
	assert.True(t, IsInvalidRules(err))
	assert.Contains(t, err.Error(), "only once")
}

func TestParseRules_UnprefixedThenTitle(t *testing.T) {
	// The unprefixed chain already claimed the title section
	_, err := ParseRules("p_title|t:legacy_t")
	require.Error(t, err)
	assert.True(t, IsInvalidRules(err))
	assert.Contains(t, err.Error(), "only once")
}

func TestParseRules_UnknownSectionPrefix(t *testing.T) {
	_, err := ParseRules("x:p_title")
	require.Error(t, err)
	assert.True(t, IsInvalidRules(err))
	assert.Contains(t, err.Error(), "unknown section prefix")
}

func TestParseRules_UnknownRuleName(t *testing.T) {
	_, err := ParseRules("t:does_not_exist")
	require.Error(t, err)
	assert.True(t, IsInvalidRules(err))
	assert.Contains(t, err.Error(), "invalid rule: does_not_exist")
}

func TestParseRules_InheritMarkerInTitle(t *testing.T) {
	_, err := ParseRules("t:_t>str_filesafe")
	require.Error(t, err)
	assert.True(t, IsInvalidRules(err))
	assert.Contains(t, err.Error(), "title")
}

func TestParseRules_InheritMarkerNotFirst(t *testing.T) {
	_, err := ParseRules("n:str_filesafe>_t")
	require.Error(t, err)
	assert.True(t, IsInvalidRules(err))
	assert.Contains(t, err.Error(), "first rule")
}

func TestParseRules_SyntaxErrors(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"unterminated string", `t:str_filesafe("x`},
		{"unexpected character", "t:p_title;"},
		{"trailing chain operator", "t:p_title>"},
		{"empty section", "t:"},
		{"unclosed parens", "t:ss_first(1"},
		{"leading comma in args", "t:ss_first(,1)"},
		{"bare sign", "t:ss_first(+)"},
		{"missing pipe", "t:p_title n:legacy_t"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRules(tc.text)
			require.Error(t, err)
			assert.True(t, IsInvalidRules(err), "got %v", err)
		})
	}
}

// =============================================================================
// Argument Coercion Tests
// =============================================================================

func TestArg_String(t *testing.T) {
	assert.Equal(t, "5", Arg{Kind: ArgInt, IntVal: 5}.String())
	assert.Equal(t, "-2", Arg{Kind: ArgInt, IntVal: -2}.String())
	assert.Equal(t, "1.5", Arg{Kind: ArgFloat, FloatVal: 1.5}.String())
	assert.Equal(t, `"x y"`, Arg{Kind: ArgString, StrVal: "x y"}.String())
}

func TestArg_CoercionMismatch(t *testing.T) {
	_, err := Arg{Kind: ArgString, StrVal: "x"}.AsInt()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected integer")

	_, err = Arg{Kind: ArgInt, IntVal: 1}.AsString()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected string")
}

func TestParsedRules_ChainAccessors(t *testing.T) {
	rules, err := ParseRules("t:p_title|n:str_rm_space|f:legacy_f")
	require.NoError(t, err)

	assert.Equal(t, rules.Title, rules.Chain(SectionTitle))
	assert.Equal(t, rules.FileName, rules.Chain(SectionFileName))
	assert.Equal(t, rules.Folder, rules.Chain(SectionFolder))
}

func TestSection_String(t *testing.T) {
	assert.Equal(t, "title", SectionTitle.String())
	assert.Equal(t, "filename", SectionFileName.String())
	assert.Equal(t, "folder", SectionFolder.String())
}
