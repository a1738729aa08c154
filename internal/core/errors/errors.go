package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Prefix marks every error raised by the preprocessing subsystem so callers
// can tell them apart from unrelated failures.
const Prefix = "[markprep]"

type ErrorCode string

const (
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
	CodeIO                  ErrorCode = "IO_ERROR"
	CodeUnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	CodeTransformFailed     ErrorCode = "TRANSFORM_FAILED"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxLine      = "line"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("%s %s", Prefix, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		msg += " (" + strings.Join(parts, " ") + ")"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// Fail builds a generic subsystem failure.
func Fail(msg string) error {
	return &DomainError{Code: CodeInternal, Message: msg}
}

// UnsupportedLanguage reports a block whose language has neither a registered
// transformer nor an override.
func UnsupportedLanguage(lang, filename string) error {
	return &DomainError{
		Code:    CodeUnsupportedLanguage,
		Message: fmt.Sprintf("Unsupported script language '%s' in file '%s'", lang, filename),
	}
}

// TransformFailed reports a load or execution failure of a named transformer.
// Only the cause's message is kept; the original error value is dropped.
func TransformFailed(name string, cause error) error {
	msg := "<nil>"
	if cause != nil {
		msg = cause.Error()
	}
	return &DomainError{
		Code:    CodeTransformFailed,
		Message: fmt.Sprintf("Error transforming '%s'. Message:\n%s", name, msg),
	}
}

// AddContext attaches a key/value to err, wrapping non-domain errors as internal.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// Locate records where in a source file err happened. Non-domain errors are
// wrapped as internal so the message keeps the subsystem prefix.
func Locate(err error, path string, line int) error {
	var de *DomainError
	if !errors.As(err, &de) {
		de = &DomainError{Code: CodeInternal, Message: "processing failed", Err: err}
	}
	return de.WithContext(CtxPath, path).WithContext(CtxLine, line)
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
