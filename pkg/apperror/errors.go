// Package apperror provides structured application errors with codes,
// severity levels and details, plus conversion to and from connect errors
// at the transport boundary.
package apperror

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Arguments and estimator configuration
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeInvalidBounds   ErrorCode = "INVALID_BOUNDS"
	CodeNotEnoughPoints ErrorCode = "NOT_ENOUGH_POINTS"
	CodeNonMonotonic    ErrorCode = "NON_MONOTONIC"
	CodeLengthMismatch  ErrorCode = "LENGTH_MISMATCH"
	CodeNegativeDensity ErrorCode = "NEGATIVE_DENSITY"
	CodeZeroArea        ErrorCode = "ZERO_AREA"
	CodeInvalidStep     ErrorCode = "INVALID_STEP"

	// Numerical evaluation
	CodeOutOfDomain      ErrorCode = "OUT_OF_DOMAIN"
	CodeNonFinite        ErrorCode = "NON_FINITE"
	CodeTargetNotReached ErrorCode = "TARGET_NOT_REACHED"

	// Catalogue lookups
	CodeUnknownIntegrand ErrorCode = "UNKNOWN_INTEGRAND"
	CodeUnknownMethod    ErrorCode = "UNKNOWN_METHOD"
	CodeUnknownPolicy    ErrorCode = "UNKNOWN_POLICY"
	CodeUnknownFormat    ErrorCode = "UNKNOWN_FORMAT"

	// General
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeCancelled        ErrorCode = "CANCELLED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeNilInput         ErrorCode = "NIL_INPUT"
	CodeUnimplemented    ErrorCode = "UNIMPLEMENTED"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue that can be ignored or automatically resolved.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates a severe error that might require immediate human intervention.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a custom error type that includes an ErrorCode, message,
// an optional field, additional details, an underlying cause, and a severity level.
type Error struct {
	Code     ErrorCode      // Code is a unique identifier for the type of error.
	Message  string         // Message is a human-readable description of the error.
	Field    string         // Field indicates which input field caused the error, if applicable.
	Details  map[string]any // Details provides additional structured information about the error.
	Cause    error          // Cause is the underlying error that triggered this application error.
	Severity Severity       // Severity indicates the criticality level of the error.
}

// Error implements the error interface, returning a string representation of the error.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing for error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ConnectCode maps the ErrorCode to a connect.Code.
func (e *Error) ConnectCode() connect.Code {
	switch e.Code {
	case CodeInvalidArgument, CodeInvalidBounds, CodeNotEnoughPoints, CodeNonMonotonic,
		CodeLengthMismatch, CodeNegativeDensity, CodeZeroArea, CodeInvalidStep,
		CodeUnknownIntegrand, CodeUnknownMethod, CodeUnknownPolicy, CodeUnknownFormat,
		CodeNilInput:
		return connect.CodeInvalidArgument

	case CodeOutOfDomain:
		return connect.CodeOutOfRange

	case CodeNonFinite, CodeTargetNotReached:
		return connect.CodeFailedPrecondition

	case CodeNotFound:
		return connect.CodeNotFound

	case CodeRateLimited:
		return connect.CodeResourceExhausted

	case CodeCancelled:
		return connect.CodeCanceled

	case CodeDeadlineExceeded:
		return connect.CodeDeadlineExceeded

	case CodeUnavailable:
		return connect.CodeUnavailable

	case CodeUnimplemented:
		return connect.CodeUnimplemented

	default:
		return connect.CodeInternal
	}
}

// ConnectError converts the application error into a *connect.Error that
// carries the application code in its metadata.
func (e *Error) ConnectError() *connect.Error {
	ce := connect.NewError(e.ConnectCode(), errors.New(e.Message))
	ce.Meta().Set(CodeHeader, string(e.Code))
	if e.Field != "" {
		ce.Meta().Set(FieldHeader, e.Field)
	}
	return ce
}

// Metadata keys used to carry application codes across the wire.
const (
	CodeHeader  = "X-App-Error-Code"
	FieldHeader = "X-App-Error-Field"
)

// New creates a new application error with the given code and message.
// The default severity is SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// Newf is New with a format string.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// NewWithField creates a new application error with the given code, message, and field.
// The default severity is SeverityError.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Field:    field,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewWarning creates a new application error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityWarning,
	}
}

// NewCritical creates a new application error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityCritical,
	}
}

// Wrap creates a new application error that wraps an existing error,
// providing additional context with a code and message.
// The default severity is SeverityError.
func Wrap(cause error, code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Cause:    cause,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// WithDetails adds a key-value pair to the error's details map and returns the modified error.
func (e *Error) WithDetails(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithField sets the field associated with the error and returns the modified error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error and returns the modified error.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is checks if the given error is an application error with a matching ErrorCode.
// It uses errors.As to unwrap the error chain.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error. If the error is not an *Error,
// it returns CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsInvalidInput reports whether err was caused by bad caller input rather
// than a server fault.
func IsInvalidInput(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ConnectCode() == connect.CodeInvalidArgument ||
			appErr.ConnectCode() == connect.CodeOutOfRange
	}
	return false
}

// ToConnect converts an application error or any other error into a connect error.
// If the error is an *Error, it uses its ConnectError method.
// If it's already a connect error, it's returned as is.
// Otherwise, it's wrapped as an internal connect error.
func ToConnect(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ConnectError()
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	return connect.NewError(connect.CodeInternal, err)
}

// FromConnect converts a connect error into an *Error.
// If the input error is nil, it returns nil.
// The application code carried in the error metadata takes precedence;
// otherwise the connect code is mapped, defaulting to CodeInternal.
func FromConnect(err error) *Error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return Wrap(err, CodeInternal, err.Error())
	}

	if code := connectErr.Meta().Get(CodeHeader); code != "" {
		appErr := New(ErrorCode(code), connectErr.Message())
		appErr.Field = connectErr.Meta().Get(FieldHeader)
		return appErr
	}

	var code ErrorCode
	switch connectErr.Code() {
	case connect.CodeInvalidArgument:
		code = CodeInvalidArgument
	case connect.CodeOutOfRange:
		code = CodeOutOfDomain
	case connect.CodeNotFound:
		code = CodeNotFound
	case connect.CodeResourceExhausted:
		code = CodeRateLimited
	case connect.CodeCanceled:
		code = CodeCancelled
	case connect.CodeDeadlineExceeded:
		code = CodeDeadlineExceeded
	case connect.CodeUnavailable:
		code = CodeUnavailable
	case connect.CodeUnimplemented:
		code = CodeUnimplemented
	default:
		code = CodeInternal
	}

	return New(code, connectErr.Message())
}

// IsWarning checks if the given error is an application error with SeverityWarning.
func IsWarning(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// IsCritical checks if the given error is an application error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// Predefined errors for common scenarios. They are shared values: compare
// against them with Is, never mutate them.
var (
	ErrBoundsOrder     = New(CodeInvalidBounds, "upper bound must be greater than lower bound")
	ErrNotEnoughPoints = New(CodeNotEnoughPoints, "at least two points are required")
	ErrNonMonotonic    = New(CodeNonMonotonic, "xs must be strictly increasing")
	ErrLengthMismatch  = New(CodeLengthMismatch, "xs and ys must have the same length")
	ErrZeroArea        = New(CodeZeroArea, "piecewise linear density has zero area")
	ErrEmptySample     = New(CodeInvalidArgument, "sample is empty")
	ErrNotFound        = New(CodeNotFound, "resource not found")
	ErrRateLimited     = New(CodeRateLimited, "rate limit exceeded")
)

// ValidationErrors is a collection of application errors and warnings,
// typically used for aggregating results of multiple validation checks.
type ValidationErrors struct {
	Errors   []*Error // Errors contains all collected errors (SeverityError and SeverityCritical).
	Warnings []*Error // Warnings contains all collected warnings (SeverityWarning).
}

// NewValidationErrors creates and returns a new empty ValidationErrors collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors:   make([]*Error, 0),
		Warnings: make([]*Error, 0),
	}
}

// Add appends an *Error to the appropriate slice (Errors or Warnings)
// based on its Severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddErrorWithField creates and adds a new application error with a specific field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// AddWarning creates and adds a new application error with SeverityWarning.
func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewWarning(code, message))
}

// HasErrors returns true if the collection contains any errors (non-warning severity).
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// First returns the first collected error or nil.
func (v *ValidationErrors) First() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}

// ErrorMessages returns a slice of string messages for all collected errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}
