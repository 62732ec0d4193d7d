package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mnohosten/mailbridge/internal/model"
)

func TestDecodeEnvelope(t *testing.T) {
	date := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	buf := &imapclient.FetchMessageBuffer{
		UID: 42,
		Envelope: &imap.Envelope{
			Subject: "Meeting notes",
			Date:    date,
			From:    []imap.Address{{Mailbox: "alice", Host: "example.com"}},
			To: []imap.Address{
				{Mailbox: "bob", Host: "example.com"},
				{Mailbox: "carol", Host: "example.com"},
			},
			Cc: []imap.Address{{Mailbox: "dave", Host: "example.com"}},
		},
		Flags: []imap.Flag{imap.FlagSeen, imap.FlagFlagged},
	}

	msg := Decode(buf, nil)

	if msg.ID != "42" {
		t.Errorf("ID = %q, want 42", msg.ID)
	}
	if msg.From != "alice@example.com" {
		t.Errorf("From = %q, want alice@example.com", msg.From)
	}
	if len(msg.To) != 2 || msg.To[0] != "bob@example.com" || msg.To[1] != "carol@example.com" {
		t.Errorf("To = %v, want [bob@example.com carol@example.com]", msg.To)
	}
	if len(msg.Cc) != 1 || msg.Cc[0] != "dave@example.com" {
		t.Errorf("Cc = %v, want [dave@example.com]", msg.Cc)
	}
	if msg.Subject != "Meeting notes" {
		t.Errorf("Subject = %q, want Meeting notes", msg.Subject)
	}
	if !msg.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", msg.Date, date)
	}
	if !msg.Seen() {
		t.Error("Seen() = false, want true")
	}
}

func TestDecodeEmptyEnvelope(t *testing.T) {
	msg := Decode(&imapclient.FetchMessageBuffer{UID: 7}, nil)

	if msg.ID != "7" {
		t.Errorf("ID = %q, want 7", msg.ID)
	}
	if msg.To == nil || msg.Cc == nil || msg.Flags == nil {
		t.Error("collections must default to empty, not nil")
	}
	if msg.Seen() {
		t.Error("Seen() = true for message without flags")
	}
}

func TestDecodeBody(t *testing.T) {
	raw, _, err := Encode("sender@example.com", &model.SendRequest{
		To:       []string{"alice@example.com"},
		Subject:  "Body test",
		Body:     "the plain text",
		HTMLBody: "<p>the html text</p>",
		Attachments: []model.Attachment{
			{Filename: "data.csv", ContentType: "text/csv", Data: []byte("a,b,c\n1,2,3\n")},
		},
	})
	if err != nil {
		t.Fatalf("Encode() returned %v", err)
	}

	section := &imap.FetchItemBodySection{Peek: true}
	buf := &imapclient.FetchMessageBuffer{
		UID: 9,
		BodySection: []imapclient.FetchBodySectionBuffer{
			{Section: section, Bytes: raw},
		},
	}

	msg := Decode(buf, section)

	if msg.Body != "the plain text" {
		t.Errorf("Body = %q, want the plain text", msg.Body)
	}
	if msg.HTMLBody != "<p>the html text</p>" {
		t.Errorf("HTMLBody = %q, want the html part", msg.HTMLBody)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("Attachments = %d entries, want 1", len(msg.Attachments))
	}
	if msg.Attachments[0].Filename != "data.csv" {
		t.Errorf("attachment filename = %q, want data.csv", msg.Attachments[0].Filename)
	}
	if msg.Attachments[0].Size == 0 {
		t.Error("attachment size = 0, want > 0")
	}
}

func TestDecodeHTMLOnlyFallback(t *testing.T) {
	raw, _, err := Encode("sender@example.com", &model.SendRequest{
		To:       []string{"alice@example.com"},
		Subject:  "HTML only",
		HTMLBody: "<p>only html here</p>",
	})
	if err != nil {
		t.Fatalf("Encode() returned %v", err)
	}

	section := &imap.FetchItemBodySection{Peek: true}
	buf := &imapclient.FetchMessageBuffer{
		UID: 10,
		BodySection: []imapclient.FetchBodySectionBuffer{
			{Section: section, Bytes: raw},
		},
	}

	msg := Decode(buf, section)

	if msg.Body != "only html here" {
		t.Errorf("Body = %q, want text derived from the html part", msg.Body)
	}
}

func TestDecodeSimpleMessage(t *testing.T) {
	section := &imap.FetchItemBodySection{Peek: true}
	raw := []byte("Subject: hi\r\nContent-Type: text/plain\r\n\r\nhello body\r\n")
	buf := &imapclient.FetchMessageBuffer{
		UID: 11,
		BodySection: []imapclient.FetchBodySectionBuffer{
			{Section: section, Bytes: raw},
		},
	}

	msg := Decode(buf, section)

	if !strings.Contains(msg.Body, "hello body") {
		t.Errorf("Body = %q, want the plain body of a non-multipart message", msg.Body)
	}
}
