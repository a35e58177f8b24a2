// Package errors defines the structured error type used across gatesmith.
//
// Every failure that can be reported about a gate template carries a Kind so
// callers can branch on the category (errors.Is against a bare Kind value works)
// while still printing the file, line and symbol that caused it.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a GateError.
type Kind string

const (
	KindUnknownSymbol            Kind = "unknown_symbol"
	KindInvalidSymbolDefinition  Kind = "invalid_symbol_definition"
	KindInvalidControlPointCount Kind = "invalid_control_point_count"
	KindMalformedNumber          Kind = "malformed_number"
	KindMalformedBoolean         Kind = "malformed_boolean"
	KindUnknownBlockType         Kind = "unknown_block_type"
	KindEmptyGrid                Kind = "empty_grid"
	KindIO                       Kind = "io_failure"
	KindInvalidCatalog           Kind = "invalid_catalog"
	KindInvalidConfig            Kind = "invalid_config"
)

// Error lets a bare Kind be used as an errors.Is target.
func (k Kind) Error() string {
	return string(k)
}

// GateError is a structured error with location context.
type GateError struct {
	Kind     Kind
	Message  string
	Cause    error
	Identity string
	Line     int
	Symbol   rune
	// Fatal errors drop the template being loaded; non-fatal ones are warnings.
	Fatal bool
}

// Error implements the error interface.
func (e *GateError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", e.Kind))

	if e.Identity != "" {
		location := e.Identity
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	if e.Symbol != 0 {
		parts = append(parts, fmt.Sprintf("symbol %q", e.Symbol))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *GateError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GateError or Kind of the same kind.
func (e *GateError) Is(target error) bool {
	var k Kind
	if errors.As(target, &k) {
		return e.Kind == k
	}

	var t *GateError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}

	return false
}

// WithIdentity records the template the error belongs to.
func (e *GateError) WithIdentity(identity string) *GateError {
	e.Identity = identity

	return e
}

// WithLine records the 1-based line number in the template file.
func (e *GateError) WithLine(line int) *GateError {
	e.Line = line

	return e
}

// WithSymbol records the diagram symbol involved.
func (e *GateError) WithSymbol(symbol rune) *GateError {
	e.Symbol = symbol

	return e
}

// New creates a fatal error of the given kind.
func New(kind Kind, message string) *GateError {
	return &GateError{
		Kind:    kind,
		Message: message,
		Fatal:   true,
	}
}

// Newf creates a fatal error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *GateError {
	return New(kind, fmt.Sprintf(format, args...))
}

// NewWarning creates a non-fatal error; the load continues with a default.
func NewWarning(kind Kind, message string) *GateError {
	return &GateError{
		Kind:    kind,
		Message: message,
	}
}

// NewIOError wraps a filesystem failure.
func NewIOError(message string, cause error) *GateError {
	return &GateError{
		Kind:    KindIO,
		Message: message,
		Cause:   cause,
		Fatal:   true,
	}
}

// KindOf extracts the Kind of err, or "" when err is not a GateError.
func KindOf(err error) Kind {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Kind
	}

	return ""
}

// IsFatal reports whether err should abort the current template load.
// Errors that are not GateErrors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Fatal
	}

	return true
}
