package mailerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"configuration", ErrConfiguration, "CONFIGURATION_ERROR"},
		{"authentication", ErrAuthentication, "AUTHENTICATION_ERROR"},
		{"connection", ErrConnection, "CONNECTION_ERROR"},
		{"validation", ErrValidation, "VALIDATION_ERROR"},
		{"not found", ErrNotFound, "NOT_FOUND"},
		{"protocol", ErrProtocol, "PROTOCOL_ERROR"},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeWrapped(t *testing.T) {
	err := fmt.Errorf("%w: invalid email address %q", ErrValidation, "nobody")
	if got := Code(err); got != "VALIDATION_ERROR" {
		t.Errorf("Code(wrapped) = %q, want VALIDATION_ERROR", got)
	}

	deep := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrAuthentication))
	if got := Code(deep); got != "AUTHENTICATION_ERROR" {
		t.Errorf("Code(deeply wrapped) = %q, want AUTHENTICATION_ERROR", got)
	}
}
