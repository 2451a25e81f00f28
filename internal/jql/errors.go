package jql

import (
	"errors"
	"fmt"
)

// TranslateError represents a query tree the translator cannot express in
// JQL. Translation is all-or-nothing: when a TranslateError is returned no
// partial output is produced.
type TranslateError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Shape names the offending node type (e.g. "*queryir.Not").
	Shape string
}

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedConstruct indicates a node shape the translator does not handle.
	ErrCodeUnsupportedConstruct ErrorCode = "UNSUPPORTED_CONSTRUCT"

	// ErrCodeInvalidComparisonTarget indicates a comparison whose left side is not a field access.
	ErrCodeInvalidComparisonTarget ErrorCode = "INVALID_COMPARISON_TARGET"

	// ErrCodeInvalidLimit indicates a limit that is not a positive integer.
	ErrCodeInvalidLimit ErrorCode = "INVALID_LIMIT"
)

// Error implements the error interface.
func (e *TranslateError) Error() string {
	if e.Shape != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Shape)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func unsupported(node any, format string, args ...any) *TranslateError {
	return &TranslateError{
		Code:    ErrCodeUnsupportedConstruct,
		Message: fmt.Sprintf(format, args...),
		Shape:   fmt.Sprintf("%T", node),
	}
}

func invalidTarget(node any) *TranslateError {
	return &TranslateError{
		Code:    ErrCodeInvalidComparisonTarget,
		Message: "left side of a comparison must be a field access",
		Shape:   fmt.Sprintf("%T", node),
	}
}

// IsUnsupportedConstruct returns true if err is an unsupported-construct error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedConstruct(err error) bool {
	return hasCode(err, ErrCodeUnsupportedConstruct)
}

// IsInvalidComparisonTarget returns true if err is an invalid-comparison-target error.
func IsInvalidComparisonTarget(err error) bool {
	return hasCode(err, ErrCodeInvalidComparisonTarget)
}

// IsInvalidLimit returns true if err is an invalid-limit error.
func IsInvalidLimit(err error) bool {
	return hasCode(err, ErrCodeInvalidLimit)
}

// CodeOf returns the ErrorCode of a TranslateError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var te *TranslateError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
