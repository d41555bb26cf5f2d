package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name: "basic error",
			appError: &AppError{
				Type:    ErrTypeMapping,
				Message: "unknown context \"school\"",
			},
			want: "mapping: unknown context \"school\"",
		},
		{
			name: "error with code",
			appError: &AppError{
				Type:    ErrTypeAuth,
				Message: "authentication failed",
				Code:    "AUTH001",
			},
			want: "authentication: authentication failed: code=AUTH001",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeParse,
				Message: "invalid vCard",
				Cause:   errors.New("missing END"),
			},
			want: "parse: invalid vCard: cause=missing END",
		},
		{
			name: "context keys are sorted",
			appError: &AppError{
				Type:    ErrTypeParse,
				Message: "invalid iCalendar",
				Context: map[string]interface{}{
					"record_id": "c1",
					"dialect":   "standard",
				},
			},
			want: "parse: invalid iCalendar: context={dialect=standard, record_id=c1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			if got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_WithContext(t *testing.T) {
	appError := MappingError("bad gender")

	result := appError.WithContext("property", "speakToAs")

	if result != appError {
		t.Error("WithContext should return the same instance")
	}

	if appError.Context["property"] != "speakToAs" {
		t.Errorf("Context[property] = %v, want speakToAs", appError.Context["property"])
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *AppError
		want ErrorType
	}{
		{"mapping", MappingError("x"), ErrTypeMapping},
		{"mappingf", MappingErrorf("unknown %s", "kind"), ErrTypeMapping},
		{"parse", ParseError("x", cause), ErrTypeParse},
		{"validation", ValidationError("x"), ErrTypeValidation},
		{"config", ConfigError("x"), ErrTypeConfig},
		{"auth", AuthError("x"), ErrTypeAuth},
		{"connection", ConnectionError("x", cause), ErrTypeConnection},
		{"internal", InternalError("x", cause), ErrTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.want {
				t.Errorf("Type = %v, want %v", tt.err.Type, tt.want)
			}
		})
	}

	if got := MappingErrorf("unknown %s", "kind").Message; got != "unknown kind" {
		t.Errorf("Message = %v, want 'unknown kind'", got)
	}
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{
			name:    "matching type",
			err:     MappingError("test"),
			errType: ErrTypeMapping,
			want:    true,
		},
		{
			name:    "wrapped app error",
			err:     fmt.Errorf("set phones: %w", MappingError("test")),
			errType: ErrTypeMapping,
			want:    true,
		},
		{
			name:    "non-matching type",
			err:     ParseError("test", nil),
			errType: ErrTypeMapping,
			want:    false,
		},
		{
			name:    "non-app error",
			err:     errors.New("regular error"),
			errType: ErrTypeMapping,
			want:    false,
		},
		{
			name:    "nil error",
			err:     nil,
			errType: ErrTypeMapping,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsType(tt.err, tt.errType)
			if got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"app error", ParseError("test", nil), ErrTypeParse},
		{"wrapped", fmt.Errorf("outer: %w", AuthError("x")), ErrTypeAuth},
		{"regular error", errors.New("regular error"), ErrTypeInternal},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetType(tt.err)
			if got != tt.want {
				t.Errorf("GetType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := ParseError("wrapped error", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("errors.Is should work with wrapped AppError")
	}

	var appErr *AppError
	if !errors.As(wrappedErr, &appErr) {
		t.Error("errors.As should work with AppError")
	}
}
