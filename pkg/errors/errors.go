package errors

import (
	"errors"
	"fmt"
)

// Code represents a stable error code for programmatic handling.
type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeInvalid       Code = "invalid"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeInternal      Code = "internal"
	CodeAlreadyExists Code = "already_exists"

	// Dialogue authoring codes. Aggregates carry their itemized list in Meta["errors"].
	CodeValidationFailed Code = "validation_failed"
	CodeImportSyntax     Code = "import_syntax_error"
	CodeImportSchema     Code = "import_schema_error"
	CodeGridExhausted    Code = "grid_exhausted"
)

// Metadata keys. MetaErrors holds an itemized []string of problems, MetaKind
// the graph rule a single rejection enforces.
const (
	MetaErrors = "errors"
	MetaKind   = "kind"
)

// AppError is a structured error type that carries a code, message, and optional metadata.
type AppError struct {
	Code    Code
	Message string
	Err     error
	Meta    map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.Err }

// WithMeta attaches metadata to the error.
func (e *AppError) WithMeta(k string, v any) *AppError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[k] = v
	return e
}

// Items returns the itemized problem list attached with WithItems, if any.
func (e *AppError) Items() []string {
	if e == nil || e.Meta == nil {
		return nil
	}
	items, _ := e.Meta[MetaErrors].([]string)
	return items
}

// Kind returns the rule name attached under MetaKind, if any.
func (e *AppError) Kind() string {
	if e == nil || e.Meta == nil {
		return ""
	}
	kind, _ := e.Meta[MetaKind].(string)
	return kind
}

// New creates a new AppError with code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an existing error with code and message.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return New(code, message)
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// WithItems builds an aggregate error whose itemized list is returned wholesale to callers.
func WithItems(code Code, message string, items []string) *AppError {
	return New(code, message).WithMeta(MetaErrors, items)
}

// IsCode checks if an error has the provided code (through unwrapping).
func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the code of the first AppError in the chain, or CodeUnknown.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ItemsOf returns the itemized problems of the first AppError in the chain.
func ItemsOf(err error) []string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Items()
	}
	return nil
}
