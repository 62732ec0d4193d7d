package api

import (
	"time"

	"github.com/mnohosten/mailbridge/internal/model"
)

// Response is the standard API response wrapper.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages,omitempty"`
}

// TokenRequest asks for a JWT using the configured API key.
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// TokenResponse carries an issued JWT.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendEmailRequest is the request for sending one email.
type SendEmailRequest struct {
	To          []string           `json:"to" validate:"required,min=1,dive,email"`
	Cc          []string           `json:"cc,omitempty" validate:"omitempty,dive,email"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	HTMLBody    string             `json:"html_body,omitempty"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

// BulkSendRequest is the request for a bulk send.
type BulkSendRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

// SearchRequest is the request for a paged mailbox search.
type SearchRequest struct {
	Filter model.EmailFilter `json:"filter"`
	Page   int               `json:"page" validate:"min=0"`
	Limit  int               `json:"limit" validate:"min=0"`
}

// MarkReadRequest toggles the seen flag.
type MarkReadRequest struct {
	Read bool `json:"read"`
}

// ForwardRequest forwards an email to new recipients.
type ForwardRequest struct {
	To   []string `json:"to" validate:"required,min=1,dive,email"`
	Note string   `json:"note,omitempty"`
}

// ReplyRequest answers an email.
type ReplyRequest struct {
	Body     string `json:"body" validate:"required"`
	ReplyAll bool   `json:"reply_all"`
}

// ScheduleRequest records a deferred send.
type ScheduleRequest struct {
	SendEmailRequest
	SendAt time.Time `json:"send_at" validate:"required"`
}

// SendResponse reports a submitted message.
type SendResponse struct {
	MessageID string `json:"message_id"`
}

// CreateContactRequest adds an address book entry.
type CreateContactRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Group string `json:"group,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// UpdateContactRequest replaces only the supplied contact fields.
type UpdateContactRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Group *string `json:"group,omitempty"`
	Phone *string `json:"phone,omitempty"`
}
