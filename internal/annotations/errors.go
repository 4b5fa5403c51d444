package annotations

import (
	"fmt"
	"strings"
)

// AnnotationError defines the interface for annotation-related errors
type AnnotationError interface {
	error
	Location() SourceLocation
	Suggestion() string
	Code() ErrorCode
}

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	SyntaxErrorCode ErrorCode = iota
	GrammarErrorCode
	DescriptorErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case GrammarErrorCode:
		return "GrammarError"
	case DescriptorErrorCode:
		return "DescriptorError"
	default:
		return "UnknownError"
	}
}

// SyntaxError represents an argument list that could not be tokenized or parsed
type SyntaxError struct {
	Msg  string         // Error message
	Loc  SourceLocation // Where the error occurred
	Hint string         // Suggested fix
}

func (e *SyntaxError) Error() string {
	return withHint(fmt.Sprintf("%s: syntax error: %s", e.Loc, e.Msg), e.Hint)
}

func (e *SyntaxError) Location() SourceLocation { return e.Loc }
func (e *SyntaxError) Suggestion() string       { return e.Hint }
func (e *SyntaxError) Code() ErrorCode          { return SyntaxErrorCode }

// GrammarError represents a well-formed argument whose value has the wrong kind,
// e.g. `flatten = "yes"` where a boolean is expected
type GrammarError struct {
	Argument string         // Source text of the offending argument
	Expected string         // What was expected
	Loc      SourceLocation // Where the error occurred
	Hint     string         // Suggested fix
}

func (e *GrammarError) Error() string {
	return withHint(fmt.Sprintf("%s: invalid value `%s`: expected %s", e.Loc, e.Argument, e.Expected), e.Hint)
}

func (e *GrammarError) Location() SourceLocation { return e.Loc }
func (e *GrammarError) Suggestion() string       { return e.Hint }
func (e *GrammarError) Code() ErrorCode          { return GrammarErrorCode }

// DescriptorError represents an annotation that parsed but does not describe
// a valid request or field: missing or duplicate annotations, leftover
// arguments, a field without a role
type DescriptorError struct {
	Target   string         // Type or field the annotation is attached to
	Argument string         // Offending argument, if any
	Msg      string         // Error message
	Loc      SourceLocation // Where the error occurred
	Hint     string         // Suggested fix
}

func (e *DescriptorError) Error() string {
	msg := e.Msg
	if e.Argument != "" {
		msg = fmt.Sprintf("%s `%s`", msg, e.Argument)
	}
	if e.Target != "" && e.Target != e.Loc.File {
		msg = fmt.Sprintf("%s (on %s)", msg, e.Target)
	}
	return withHint(fmt.Sprintf("%s: %s", e.Loc, msg), e.Hint)
}

func (e *DescriptorError) Location() SourceLocation { return e.Loc }
func (e *DescriptorError) Suggestion() string       { return e.Hint }
func (e *DescriptorError) Code() ErrorCode          { return DescriptorErrorCode }

func withHint(msg, hint string) string {
	if hint == "" {
		return msg
	}
	return msg + ". " + hint
}

// MultipleAnnotationErrors represents multiple annotation errors collected together
type MultipleAnnotationErrors struct {
	Errors []AnnotationError
}

func (e *MultipleAnnotationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return fmt.Sprintf("multiple annotation errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// Add appends err, flattening nested collections
func (e *MultipleAnnotationErrors) Add(err AnnotationError) {
	if nested, ok := err.(*MultipleAnnotationErrors); ok {
		e.Errors = append(e.Errors, nested.Errors...)
		return
	}
	e.Errors = append(e.Errors, err)
}

// ErrorOrNil returns nil when nothing was collected
func (e *MultipleAnnotationErrors) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Unwrap returns the underlying errors for error inspection
func (e *MultipleAnnotationErrors) Unwrap() []error {
	errors := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errors[i] = err
	}
	return errors
}

// GetByType returns all errors of a specific type
func (e *MultipleAnnotationErrors) GetByType(code ErrorCode) []AnnotationError {
	var result []AnnotationError
	for _, err := range e.Errors {
		if err.Code() == code {
			result = append(result, err)
		}
	}
	return result
}

// HasType returns true if any error of the specified type exists
func (e *MultipleAnnotationErrors) HasType(code ErrorCode) bool {
	for _, err := range e.Errors {
		if err.Code() == code {
			return true
		}
	}
	return false
}

// Location, Suggestion and Code report the first collected error so the
// collection itself satisfies AnnotationError.
func (e *MultipleAnnotationErrors) Location() SourceLocation {
	if len(e.Errors) == 0 {
		return SourceLocation{}
	}
	return e.Errors[0].Location()
}

func (e *MultipleAnnotationErrors) Suggestion() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Suggestion()
}

func (e *MultipleAnnotationErrors) Code() ErrorCode {
	if len(e.Errors) == 0 {
		return DescriptorErrorCode
	}
	return e.Errors[0].Code()
}
