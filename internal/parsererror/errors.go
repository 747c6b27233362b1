// Package parsererror holds the error types surfaced by the import pipeline.
package parsererror

import (
	"fmt"
	"strings"
)

// DecodeError means no candidate text encoding could decode the file. It is
// the only failure that aborts an import before any row is read.
type DecodeError struct {
	FilePath string
	Tried    []string
	Err      error
}

func (e *DecodeError) Error() string {
	name := e.FilePath
	if name == "" {
		name = "upload"
	}
	msg := fmt.Sprintf("could not read file encoding of %s (tried %s). Please re-save as CSV UTF-8",
		name, strings.Join(e.Tried, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseError represents a field that could not be parsed.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid configuration or input.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

// CategorizationError wraps a failure inside one classification stage. It is
// logged and never aborts an import.
type CategorizationError struct {
	Transaction string
	Strategy    string
	Err         error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %s using %s: %v",
		e.Transaction, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}

// InvalidFormatError means the file decoded but holds no usable CSV data.
type InvalidFormatError struct {
	FilePath       string
	ExpectedFormat string
	Msg            string
	Err            error
}

func (e *InvalidFormatError) Error() string {
	msg := fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}
