// Package apperror provides tests for the custom error types and utility functions.
package apperror

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
)

// TestError_Error verifies that the Error() method returns the correct string format.
func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without field",
			err:      New(CodeInvalidBounds, "b must be greater than a"),
			expected: "[INVALID_BOUNDS] b must be greater than a",
		},
		{
			name:     "with field",
			err:      NewWithField(CodeNonMonotonic, "xs must be strictly increasing", "xs"),
			expected: "[NON_MONOTONIC] xs must be strictly increasing (field: xs)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestError_Unwrap verifies that the Unwrap() method correctly returns the underlying cause.
func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, CodeInternal, "wrapped error")

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

// TestError_ConnectCode verifies the mapping of ErrorCodes to connect codes.
func TestError_ConnectCode(t *testing.T) {
	tests := []struct {
		name         string
		code         ErrorCode
		expectedCode connect.Code
	}{
		{"invalid bounds", CodeInvalidBounds, connect.CodeInvalidArgument},
		{"not enough points", CodeNotEnoughPoints, connect.CodeInvalidArgument},
		{"unknown integrand", CodeUnknownIntegrand, connect.CodeInvalidArgument},
		{"out of domain", CodeOutOfDomain, connect.CodeOutOfRange},
		{"not found", CodeNotFound, connect.CodeNotFound},
		{"rate limited", CodeRateLimited, connect.CodeResourceExhausted},
		{"deadline", CodeDeadlineExceeded, connect.CodeDeadlineExceeded},
		{"cancelled", CodeCancelled, connect.CodeCanceled},
		{"internal", CodeInternal, connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "test message")
			if got := err.ConnectCode(); got != tt.expectedCode {
				t.Errorf("ConnectCode() = %v, want %v", got, tt.expectedCode)
			}
		})
	}
}

// TestNew verifies the New function correctly initializes an Error.
func TestNew(t *testing.T) {
	err := New(CodeZeroArea, "zero area")

	if err.Code != CodeZeroArea {
		t.Errorf("Code = %v, want %v", err.Code, CodeZeroArea)
	}
	if err.Severity != SeverityError {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityError)
	}
	if err.Details == nil {
		t.Error("Details should be initialized")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CodeOutOfDomain, "x=%g outside [%g, %g]", 3.0, 0.0, 2.0)
	if err.Message != "x=3 outside [0, 2]" {
		t.Errorf("Message = %q", err.Message)
	}
}

// TestWithDetails verifies that details are attached and chained.
func TestWithDetails(t *testing.T) {
	err := New(CodeOutOfDomain, "out of domain").
		WithDetails("x", 3.5).
		WithField("x").
		WithSeverity(SeverityWarning)

	if err.Details["x"] != 3.5 {
		t.Errorf("Details[x] = %v, want 3.5", err.Details["x"])
	}
	if err.Field != "x" {
		t.Errorf("Field = %v, want x", err.Field)
	}
	if !IsWarning(err) {
		t.Error("IsWarning() should be true")
	}

	bare := &Error{Code: CodeInternal}
	bare.WithDetails("k", 1)
	if bare.Details["k"] != 1 {
		t.Error("WithDetails should initialise a nil map")
	}
}

// TestIs verifies code matching through wrapped chains.
func TestIs(t *testing.T) {
	base := New(CodeNonMonotonic, "bad xs")
	wrapped := fmt.Errorf("building plf: %w", base)

	if !Is(wrapped, CodeNonMonotonic) {
		t.Error("Is() should match through fmt.Errorf wrapping")
	}
	if Is(wrapped, CodeLengthMismatch) {
		t.Error("Is() should not match a different code")
	}
	if Is(errors.New("plain"), CodeInternal) {
		t.Error("Is() should be false for non-application errors")
	}
}

// TestCode verifies code extraction.
func TestCode(t *testing.T) {
	if got := Code(New(CodeZeroArea, "")); got != CodeZeroArea {
		t.Errorf("Code() = %v, want %v", got, CodeZeroArea)
	}
	if got := Code(errors.New("plain")); got != CodeInternal {
		t.Errorf("Code() = %v, want %v", got, CodeInternal)
	}
}

func TestIsInvalidInput(t *testing.T) {
	if !IsInvalidInput(ErrBoundsOrder) {
		t.Error("bounds error is invalid input")
	}
	if !IsInvalidInput(New(CodeOutOfDomain, "")) {
		t.Error("out of domain is invalid input")
	}
	if IsInvalidInput(New(CodeInternal, "")) {
		t.Error("internal error is not invalid input")
	}
}

// TestToConnect verifies conversion to connect errors.
func TestToConnect(t *testing.T) {
	if ToConnect(nil) != nil {
		t.Fatal("ToConnect(nil) should be nil")
	}

	t.Run("application error", func(t *testing.T) {
		err := ToConnect(NewWithField(CodeInvalidBounds, "b <= a", "b"))
		var ce *connect.Error
		if !errors.As(err, &ce) {
			t.Fatalf("expected *connect.Error, got %T", err)
		}
		if ce.Code() != connect.CodeInvalidArgument {
			t.Errorf("Code() = %v", ce.Code())
		}
		if ce.Meta().Get(CodeHeader) != string(CodeInvalidBounds) {
			t.Errorf("code header = %q", ce.Meta().Get(CodeHeader))
		}
		if ce.Meta().Get(FieldHeader) != "b" {
			t.Errorf("field header = %q", ce.Meta().Get(FieldHeader))
		}
	})

	t.Run("connect error passes through", func(t *testing.T) {
		orig := connect.NewError(connect.CodeUnavailable, errors.New("down"))
		if got := ToConnect(orig); got != orig {
			t.Errorf("ToConnect() = %v, want original", got)
		}
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		err := ToConnect(errors.New("boom"))
		if connect.CodeOf(err) != connect.CodeInternal {
			t.Errorf("CodeOf() = %v", connect.CodeOf(err))
		}
	})
}

// TestFromConnect verifies conversion from connect errors.
func TestFromConnect(t *testing.T) {
	if FromConnect(nil) != nil {
		t.Fatal("FromConnect(nil) should be nil")
	}

	t.Run("round trip keeps application code", func(t *testing.T) {
		orig := NewWithField(CodeNonMonotonic, "xs not sorted", "xs")
		back := FromConnect(ToConnect(orig))
		if back.Code != CodeNonMonotonic {
			t.Errorf("Code = %v, want %v", back.Code, CodeNonMonotonic)
		}
		if back.Field != "xs" {
			t.Errorf("Field = %v, want xs", back.Field)
		}
		if back.Message != "xs not sorted" {
			t.Errorf("Message = %v", back.Message)
		}
	})

	tests := []struct {
		code     connect.Code
		expected ErrorCode
	}{
		{connect.CodeInvalidArgument, CodeInvalidArgument},
		{connect.CodeNotFound, CodeNotFound},
		{connect.CodeResourceExhausted, CodeRateLimited},
		{connect.CodeDeadlineExceeded, CodeDeadlineExceeded},
		{connect.CodeUnavailable, CodeUnavailable},
		{connect.CodeDataLoss, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got := FromConnect(connect.NewError(tt.code, errors.New("x")))
			if got.Code != tt.expected {
				t.Errorf("Code = %v, want %v", got.Code, tt.expected)
			}
		})
	}

	t.Run("plain error", func(t *testing.T) {
		got := FromConnect(errors.New("plain"))
		if got.Code != CodeInternal {
			t.Errorf("Code = %v", got.Code)
		}
	})
}

// TestValidationErrors verifies the aggregation helper.
func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	if v.HasErrors() || v.First() != nil {
		t.Fatal("new collection should be empty")
	}

	v.AddWarning(CodeInvalidArgument, "step is small")
	v.Add(NewWarning(CodeInvalidArgument, "points are few"))
	if v.HasErrors() {
		t.Error("warnings should not count as errors")
	}

	v.AddErrorWithField(CodeInvalidBounds, "b <= a", "b")
	if !v.HasErrors() {
		t.Error("HasErrors() should be true")
	}
	if !Is(v.First(), CodeInvalidBounds) {
		t.Errorf("First() = %v", v.First())
	}
	if msgs := v.ErrorMessages(); len(msgs) != 1 || msgs[0] != "[INVALID_BOUNDS] b <= a (field: b)" {
		t.Errorf("ErrorMessages() = %v", msgs)
	}
	if len(v.Warnings) != 2 {
		t.Errorf("Warnings = %d, want 2", len(v.Warnings))
	}
}

func TestSeverity_String(t *testing.T) {
	tests := map[Severity]string{
		SeverityWarning:  "warning",
		SeverityError:    "error",
		SeverityCritical: "critical",
		Severity(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %v, want %v", s, got, want)
		}
	}
}
