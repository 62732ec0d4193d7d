package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"user@example.com", false},
		{"first.last@sub.example.com", false},
		{"u@e.co", false},
		{"", true},
		{"no-at-sign", true},
		{"@example.com", true},
		{"user@", true},
		{"user@@example.com", true},
		{"user @example.com", true},
		{"user@localhost", true},
		{"not-an-email", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateAddress(%q) = nil, want error", tt.addr)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAddress(%q) = %v, want nil", tt.addr, err)
			}
			if tt.wantErr && err != nil && !errors.Is(err, mailerr.ErrValidation) {
				t.Errorf("ValidateAddress(%q) error is not ErrValidation: %v", tt.addr, err)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	req := &model.SendRequest{
		To:      []string{"alice@example.com", "bob@example.com"},
		Cc:      []string{"carol@example.com"},
		Subject: "Quarterly report",
		Body:    "Please find the numbers attached.",
	}

	raw, messageID, err := Encode("sender@example.com", req)
	if err != nil {
		t.Fatalf("Encode() returned %v", err)
	}

	if !strings.HasPrefix(messageID, "<") || !strings.HasSuffix(messageID, ">") {
		t.Errorf("message id %q is not angle-bracketed", messageID)
	}
	if !strings.Contains(messageID, "@example.com>") {
		t.Errorf("message id %q does not use the sender domain", messageID)
	}

	msg := string(raw)
	for _, want := range []string{
		"From: ",
		"sender@example.com",
		"alice@example.com",
		"bob@example.com",
		"Cc: ",
		"carol@example.com",
		"Subject: Quarterly report",
		"Please find the numbers attached.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("encoded message missing %q", want)
		}
	}
}

func TestEncodeHTMLAlternative(t *testing.T) {
	req := &model.SendRequest{
		To:       []string{"alice@example.com"},
		Subject:  "Hello",
		Body:     "plain version",
		HTMLBody: "<p>html version</p>",
	}

	raw, _, err := Encode("sender@example.com", req)
	if err != nil {
		t.Fatalf("Encode() returned %v", err)
	}

	msg := string(raw)
	if !strings.Contains(msg, "plain version") {
		t.Error("encoded message missing plain text part")
	}
	if !strings.Contains(msg, "html version") {
		t.Error("encoded message missing html part")
	}
	if !strings.Contains(msg, "text/html") {
		t.Error("encoded message missing text/html content type")
	}
}

func TestEncodeAttachment(t *testing.T) {
	req := &model.SendRequest{
		To:      []string{"alice@example.com"},
		Subject: "With file",
		Body:    "see attachment",
		Attachments: []model.Attachment{
			{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("some notes")},
		},
	}

	raw, _, err := Encode("sender@example.com", req)
	if err != nil {
		t.Fatalf("Encode() returned %v", err)
	}

	msg := string(raw)
	if !strings.Contains(msg, "notes.txt") {
		t.Error("encoded message missing attachment filename")
	}
	if !strings.Contains(msg, "attachment") {
		t.Error("encoded message missing attachment disposition")
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *model.SendRequest
	}{
		{
			name: "no recipients",
			req:  &model.SendRequest{Subject: "x", Body: "y"},
		},
		{
			name: "malformed to",
			req:  &model.SendRequest{To: []string{"not-an-email"}},
		},
		{
			name: "malformed cc",
			req:  &model.SendRequest{To: []string{"ok@example.com"}, Cc: []string{"bad"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Encode("sender@example.com", tt.req)
			if err == nil {
				t.Fatal("Encode() returned nil, want error")
			}
			if !errors.Is(err, mailerr.ErrValidation) {
				t.Errorf("Encode() error is not ErrValidation: %v", err)
			}
		})
	}
}
