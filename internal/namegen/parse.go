package namegen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultRules is the built-in ruleset used when the user supplies no rule
// text: the historical title algorithm, a file name derived from the title,
// and the series title as folder.
const DefaultRules = "t:legacy_t|n:_t>str_filesafe|f:legacy_f"

// InheritMarker is the reserved rule name that seeds a section with the
// previous section's result. Legal only in first position of the n and f
// sections.
const InheritMarker = "_t"

// Section is one of the three named outputs of the engine.
type Section int

const (
	SectionTitle Section = iota
	SectionFileName
	SectionFolder
)

var sectionNames = map[Section]string{
	SectionTitle:    "title",
	SectionFileName: "filename",
	SectionFolder:   "folder",
}

// sectionOrder is the fixed execution order. Title must run first so the
// other sections can inherit its result.
var sectionOrder = []Section{SectionTitle, SectionFileName, SectionFolder}

var sectionPrefixes = map[string]Section{
	"t": SectionTitle,
	"n": SectionFileName,
	"f": SectionFolder,
}

func (s Section) String() string {
	if n, ok := sectionNames[s]; ok {
		return n
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// ArgKind discriminates rule argument types.
type ArgKind int

const (
	ArgInt ArgKind = iota
	ArgFloat
	ArgString
)

// Arg is one positional rule argument. Arity and types are not checked
// statically; rules coerce through AsInt/AsString at call time.
type Arg struct {
	Kind     ArgKind
	IntVal   int64
	FloatVal float64
	StrVal   string
}

func (a Arg) String() string {
	switch a.Kind {
	case ArgInt:
		return strconv.FormatInt(a.IntVal, 10)
	case ArgFloat:
		return strconv.FormatFloat(a.FloatVal, 'g', -1, 64)
	default:
		return strconv.Quote(a.StrVal)
	}
}

// AsInt coerces the argument to an int.
func (a Arg) AsInt() (int, error) {
	if a.Kind != ArgInt {
		return 0, fmt.Errorf("expected integer argument, got %s", a)
	}
	return int(a.IntVal), nil
}

// AsString coerces the argument to a string.
func (a Arg) AsString() (string, error) {
	if a.Kind != ArgString {
		return "", fmt.Errorf("expected string argument, got %s", a)
	}
	return a.StrVal, nil
}

// Call is a single rule invocation inside a chain.
type Call struct {
	Name string
	Args []Arg
}

// Chain is the ordered list of rule calls of one section.
type Chain []Call

// ParsedRules holds one validated chain per section. A value is built once
// per tool invocation and never mutated afterwards.
type ParsedRules struct {
	Title    Chain
	FileName Chain
	Folder   Chain
}

// Chain returns the chain of the given section.
func (r *ParsedRules) Chain(s Section) Chain {
	switch s {
	case SectionTitle:
		return r.Title
	case SectionFileName:
		return r.FileName
	default:
		return r.Folder
	}
}

func (r *ParsedRules) setChain(s Section, c Chain) {
	switch s {
	case SectionTitle:
		r.Title = c
	case SectionFileName:
		r.FileName = c
	default:
		r.Folder = c
	}
}

// ParseRules compiles rule text into a validated ParsedRules. Empty text
// selects DefaultRules; sections missing from non-empty text are
// back-filled from DefaultRules section by section. All errors are
// *RulesError with code INVALID_RULES.
func ParseRules(text string) (*ParsedRules, error) {
	if strings.TrimSpace(text) == "" {
		rules, err := parseRuleText(DefaultRules)
		if err != nil {
			return nil, err
		}
		return rules, validateRules(rules)
	}

	rules, err := parseRuleText(text)
	if err != nil {
		return nil, err
	}
	var defaults *ParsedRules
	for _, s := range sectionOrder {
		if rules.Chain(s) != nil {
			continue
		}
		if defaults == nil {
			if defaults, err = parseRuleText(DefaultRules); err != nil {
				return nil, err
			}
		}
		rules.setChain(s, defaults.Chain(s))
	}
	return rules, validateRules(rules)
}

// validateRules checks rule names against the registry and the placement
// of the inherit marker, before anything executes.
func validateRules(rules *ParsedRules) error {
	for _, s := range sectionOrder {
		for i, call := range rules.Chain(s) {
			if call.Name == InheritMarker {
				if s == SectionTitle {
					return NewInvalidRulesError("%s cannot be used in the %s section: no previous output to inherit", InheritMarker, s)
				}
				if i != 0 {
					return NewInvalidRulesError("%s must be the first rule of its section", InheritMarker)
				}
				continue
			}
			if _, ok := registry[call.Name]; !ok {
				return NewInvalidRulesError("invalid rule: %s", call.Name)
			}
		}
	}
	return nil
}

// parseRuleText runs the lexer and parser over one ruleset string.
func parseRuleText(text string) (*ParsedRules, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseRuleset()
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokInt
	tokFloat
	tokString
	tokLParen
	tokRParen
	tokComma
	tokChain // >
	tokPipe  // |
	tokColon // :
	tokEOF
)

var tokenKindNames = map[tokenKind]string{
	tokIdent:  "identifier",
	tokInt:    "integer",
	tokFloat:  "float",
	tokString: "string",
	tokLParen: `"("`,
	tokRParen: `")"`,
	tokComma:  `","`,
	tokChain:  `">"`,
	tokPipe:   `"|"`,
	tokColon:  `":"`,
	tokEOF:    "end of rules",
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return tokenKindNames[tokEOF]
	}
	return fmt.Sprintf("%s %q", tokenKindNames[t.kind], t.text)
}

// lex splits rule text into tokens. The grammar is whitespace-insensitive
// between tokens; quoted strings carry no escape sequences.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '>':
			toks = append(toks, token{tokChain, ">", i})
			i++
		case c == '|':
			toks = append(toks, token{tokPipe, "|", i})
			i++
		case c == ':':
			toks = append(toks, token{tokColon, ":", i})
			i++
		case c == '"':
			end := strings.IndexByte(src[i+1:], '"')
			if end < 0 {
				return nil, NewInvalidRulesError("unterminated string at offset %d", i)
			}
			toks = append(toks, token{tokString, src[i+1 : i+1+end], i})
			i += end + 2
		case c == '+' || c == '-' || isDigit(c):
			tok, n, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = n
		case isIdentStart(rune(c)):
			start := i
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		default:
			return nil, NewInvalidRulesError("unexpected character %q at offset %d", string(c), i)
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func lexNumber(src string, start int) (token, int, error) {
	i := start
	if src[i] == '+' || src[i] == '-' {
		i++
	}
	digits := 0
	for i < len(src) && isDigit(src[i]) {
		i++
		digits++
	}
	isFloat := false
	if i < len(src) && src[i] == '.' && i+1 < len(src) && isDigit(src[i+1]) {
		isFloat = true
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if digits == 0 {
		return token{}, 0, NewInvalidRulesError("malformed number at offset %d", start)
	}
	kind := tokInt
	if isFloat {
		kind = tokFloat
	}
	return token{kind, src[start:i], start}, i, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return token{}, NewInvalidRulesError("expected %s, got %s at offset %d", tokenKindNames[kind], t.describe(), t.pos)
	}
	return t, nil
}

// parseRuleset parses section ("|" section)* and rejects a section
// declared twice. A chain without a prefix is the title section.
func (p *parser) parseRuleset() (*ParsedRules, error) {
	rules := &ParsedRules{}
	for {
		section, chain, err := p.parseSection()
		if err != nil {
			return nil, err
		}
		if rules.Chain(section) != nil {
			return nil, NewInvalidRulesError("section %s must be present only once", section)
		}
		rules.setChain(section, chain)

		t := p.next()
		if t.kind == tokEOF {
			return rules, nil
		}
		if t.kind != tokPipe {
			return nil, NewInvalidRulesError("expected %s or %s, got %s at offset %d",
				tokenKindNames[tokPipe], tokenKindNames[tokEOF], t.describe(), t.pos)
		}
	}
}

func (p *parser) parseSection() (Section, Chain, error) {
	section := SectionTitle
	if p.peek().kind == tokIdent && p.toks[p.i+1].kind == tokColon {
		s, ok := sectionPrefixes[p.peek().text]
		if !ok {
			return 0, nil, NewInvalidRulesError("unknown section prefix %q at offset %d", p.peek().text, p.peek().pos)
		}
		section = s
		p.next()
		p.next()
	}
	chain, err := p.parseChain()
	if err != nil {
		return 0, nil, err
	}
	return section, chain, nil
}

func (p *parser) parseChain() (Chain, error) {
	var chain Chain
	for {
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		chain = append(chain, call)
		if p.peek().kind != tokChain {
			return chain, nil
		}
		p.next()
	}
}

func (p *parser) parseCall() (Call, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return Call{}, err
	}
	call := Call{Name: name.text}
	if p.peek().kind != tokLParen {
		return call, nil
	}
	p.next()
	if p.peek().kind == tokRParen {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseArg()
		if err != nil {
			return Call{}, err
		}
		call.Args = append(call.Args, arg)
		t := p.next()
		if t.kind == tokRParen {
			return call, nil
		}
		if t.kind != tokComma {
			return Call{}, NewInvalidRulesError("expected %s or %s, got %s at offset %d",
				tokenKindNames[tokComma], tokenKindNames[tokRParen], t.describe(), t.pos)
		}
	}
}

func (p *parser) parseArg() (Arg, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return Arg{}, NewInvalidRulesError("malformed integer %q at offset %d", t.text, t.pos)
		}
		return Arg{Kind: ArgInt, IntVal: n}, nil
	case tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Arg{}, NewInvalidRulesError("malformed float %q at offset %d", t.text, t.pos)
		}
		return Arg{Kind: ArgFloat, FloatVal: f}, nil
	case tokString:
		return Arg{Kind: ArgString, StrVal: t.text}, nil
	default:
		return Arg{}, NewInvalidRulesError("expected argument, got %s at offset %d", t.describe(), t.pos)
	}
}
