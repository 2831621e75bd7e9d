package namegen

import (
	"errors"
	"fmt"
)

// RulesError represents a failure of the naming engine.
//
// Rules errors include:
//   - Invalid rules: malformed rule text, a repeated section, an unknown
//     rule name, misuse of the inherit marker, or a chain that does not
//     reduce to a single non-empty string
//   - Rule call: a failure inside a specific rule body
//   - Empty string: a terminal string rule found nothing to work on
//   - Stopword language: a language with no bundled stopword list
//
// RulesError includes structured fields for diagnostics.
type RulesError struct {
	// Code identifies the error category.
	Code RulesErrorCode

	// Message is a human-readable description.
	Message string

	// Rule is the rule name (for rule call errors).
	Rule string

	// Args are the rendered rule arguments (for rule call errors).
	Args []string

	// Err is the underlying cause, if any.
	Err error
}

// RulesErrorCode categorizes naming engine errors.
type RulesErrorCode string

const (
	// ErrCodeInvalidRules indicates bad rule text or a bad reduction.
	ErrCodeInvalidRules RulesErrorCode = "INVALID_RULES"

	// ErrCodeRuleCall indicates a failure while a specific rule ran.
	ErrCodeRuleCall RulesErrorCode = "RULE_CALL"

	// ErrCodeEmptyString indicates a terminal rule reduced to nothing.
	ErrCodeEmptyString RulesErrorCode = "EMPTY_STRING"

	// ErrCodeStopwordLanguage indicates an unbundled stopword language.
	ErrCodeStopwordLanguage RulesErrorCode = "STOPWORD_LANGUAGE"
)

// Error implements the error interface.
func (e *RulesError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s args=%v)", e.Code, e.Message, e.Rule, e.Args)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RulesError) Unwrap() error {
	return e.Err
}

// IsInvalidRules returns true if the error is an invalid-rules error.
// Uses errors.As to handle wrapped errors.
func IsInvalidRules(err error) bool {
	var re *RulesError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidRules
	}
	return false
}

// IsRuleCall returns true if the error is a rule call error.
func IsRuleCall(err error) bool {
	var re *RulesError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRuleCall
	}
	return false
}

// NewInvalidRulesError creates a RulesError for bad rule text.
func NewInvalidRulesError(format string, args ...any) *RulesError {
	return &RulesError{
		Code:    ErrCodeInvalidRules,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewRuleCallError wraps a failure inside the named rule.
func NewRuleCallError(rule string, args []Arg, err error) *RulesError {
	rendered := make([]string, len(args))
	for i, a := range args {
		rendered[i] = a.String()
	}
	return &RulesError{
		Code:    ErrCodeRuleCall,
		Message: "error calling rule",
		Rule:    rule,
		Args:    rendered,
		Err:     err,
	}
}

// NewEmptyStringError creates a RulesError for an empty terminal string.
func NewEmptyStringError() *RulesError {
	return &RulesError{
		Code:    ErrCodeEmptyString,
		Message: "string reduction produced an empty value",
	}
}

// NewStopwordLanguageError creates a RulesError for a missing word list.
func NewStopwordLanguageError(language string) *RulesError {
	return &RulesError{
		Code:    ErrCodeStopwordLanguage,
		Message: fmt.Sprintf("no stopword list bundled for language %q", language),
	}
}
