package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeInvalidURL, "bad template")
	if err.Code != ErrCodeInvalidURL {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidURL, err.Code)
	}
	if err.Message != "bad template" {
		t.Errorf("expected message 'bad template', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("INVALID_URL should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	if !New(ErrCodeTimeout, "waited too long").Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_Error(t *testing.T) {
	err := MissingField("requestInfo")
	want := "MISSING_FIELD: requestInfo cannot be nil or empty"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	cause := fmt.Errorf("boom")
	wrapped := Internal(cause)
	if !strings.Contains(wrapped.Error(), "cause: boom") {
		t.Errorf("expected cause in message, got %q", wrapped.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("parse failure")
	err := InvalidURL("http://[::1", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Details["url"] != "http://[::1" {
		t.Errorf("expected url detail, got %v", err.Details["url"])
	}
}

func TestUnsupportedMediaType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"", "no content type was provided"},
		{"application/xml", "application/xml does not have a factory registered"},
	}
	for _, tt := range tests {
		err := UnsupportedMediaType(tt.contentType)
		if err.Code != ErrCodeUnsupportedMediaType {
			t.Errorf("expected UNSUPPORTED_MEDIA_TYPE, got %s", err.Code)
		}
		if !strings.Contains(err.Message, tt.want) {
			t.Errorf("UnsupportedMediaType(%q) = %q, want substring %q", tt.contentType, err.Message, tt.want)
		}
	}
}

func TestAsAppError(t *testing.T) {
	inner := InvalidFormat("content-type", "type/subtype")
	wrapped := fmt.Errorf("resolve: %w", inner)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to unwrap")
	}
	if appErr != inner {
		t.Error("expected the original AppError")
	}
	if !IsAppError(wrapped) {
		t.Error("expected IsAppError to be true")
	}
	if !HasCode(wrapped, ErrCodeInvalidFormat) {
		t.Error("expected HasCode to match INVALID_FORMAT")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeInvalidFormat) {
		t.Error("plain errors carry no code")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := Validation("bad config").WithDetail("field", "base_url").WithCause(fmt.Errorf("x"))
	if err.Details["field"] != "base_url" {
		t.Errorf("expected field detail, got %v", err.Details["field"])
	}
	if err.Cause == nil {
		t.Error("expected cause to be set")
	}
}
