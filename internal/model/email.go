// Package model defines the domain entities exchanged between the
// service and its front-ends.
package model

import "time"

// EmailMessage is a message hydrated from the mailbox. It is immutable
// once built; re-fetching the same id may return different flags if
// the remote state changed.
type EmailMessage struct {
	ID          string           `json:"id"`
	From        string           `json:"from"`
	To          []string         `json:"to"`
	Cc          []string         `json:"cc,omitempty"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	HTMLBody    string           `json:"html_body,omitempty"`
	Flags       []string         `json:"flags"`
	Date        time.Time        `json:"date"`
	Attachments []AttachmentInfo `json:"attachments,omitempty"`
}

// Seen reports whether the message carries the \Seen flag.
func (m *EmailMessage) Seen() bool {
	for _, f := range m.Flags {
		if f == `\Seen` {
			return true
		}
	}
	return false
}

// AttachmentInfo is attachment metadata on a retrieved message.
type AttachmentInfo struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// Attachment is an outbound attachment. Content is read fully before
// the send call returns; the struct is owned by the request carrying
// it and never retained after dispatch.
type Attachment struct {
	Filename    string `json:"filename"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"-"`
}

// SendRequest describes one outbound message.
type SendRequest struct {
	To          []string     `json:"to"`
	Cc          []string     `json:"cc,omitempty"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	HTMLBody    string       `json:"html_body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// EmailFilter selects messages. All present fields combine with
// logical AND; absent fields impose no constraint, so the zero value
// matches everything. Since is inclusive and Before exclusive,
// following IMAP date semantics.
type EmailFilter struct {
	From    string     `json:"from,omitempty"`
	To      string     `json:"to,omitempty"`
	Subject string     `json:"subject,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
	Before  *time.Time `json:"before,omitempty"`
	Seen    *bool      `json:"seen,omitempty"`
	Flagged *bool      `json:"flagged,omitempty"`
}

// SearchResult is one page of a search.
type SearchResult struct {
	Items []*EmailMessage `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// BulkResult records one per-recipient attempt of a bulk send.
type BulkResult struct {
	Recipient string `json:"recipient"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// BulkSummary is the outcome of a bulk send. Sent and Failed are
// derived from Results and always partition it.
type BulkSummary struct {
	Results []BulkResult `json:"results"`
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
}

// Summarize derives the counts from a result list.
func Summarize(results []BulkResult) BulkSummary {
	s := BulkSummary{Results: results}
	for _, r := range results {
		if r.Success {
			s.Sent++
		} else {
			s.Failed++
		}
	}
	return s
}

// SenderCount is one entry of the top-senders ranking.
type SenderCount struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

// Statistics aggregates mailbox counts. ReadEmails + UnreadEmails
// always equals TotalEmails.
type Statistics struct {
	TotalEmails  int           `json:"total_emails"`
	UnreadEmails int           `json:"unread_emails"`
	ReadEmails   int           `json:"read_emails"`
	SentEmails   int           `json:"sent_emails"`
	TopSenders   []SenderCount `json:"top_senders"`
}

// Contact is an address book entry.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Group     string    `json:"group,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactUpdate carries a partial contact mutation; nil fields are
// left unchanged.
type ContactUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Group *string `json:"group,omitempty"`
	Phone *string `json:"phone,omitempty"`
}
