// Package event implements a small in-process pub/sub bus for
// operation events.
package event

import "time"

// Event type constants
const (
	EventEmailSent         = "email.sent"
	EventEmailBulkSent     = "email.bulk_sent"
	EventEmailDeleted      = "email.deleted"
	EventEmailFlagsChanged = "email.flags_changed"
	EventDraftCreated      = "draft.created"
	EventEmailScheduled    = "email.scheduled"

	EventContactCreated = "contact.created"
	EventContactUpdated = "contact.updated"
	EventContactDeleted = "contact.deleted"
)

// Event is the base interface for all events.
type Event interface {
	Type() string
	Timestamp() time.Time
	Payload() any
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	EventType string    `json:"type"`
	EventTime time.Time `json:"timestamp"`
	EventData any       `json:"data"`
}

// Type returns the event type.
func (e *BaseEvent) Type() string { return e.EventType }

// Timestamp returns the event timestamp.
func (e *BaseEvent) Timestamp() time.Time { return e.EventTime }

// Payload returns the event data.
func (e *BaseEvent) Payload() any { return e.EventData }

// NewEvent creates a new event.
func NewEvent(eventType string, data any) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now(),
		EventData: data,
	}
}

// EmailSentEvent is emitted after a successful submission.
type EmailSentEvent struct {
	MessageID  string   `json:"message_id"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
}

// BulkSentEvent is emitted after a bulk send finishes.
type BulkSentEvent struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// EmailDeletedEvent is emitted after a message is expunged.
type EmailDeletedEvent struct {
	EmailID string `json:"email_id"`
}

// FlagsChangedEvent is emitted after a flag mutation.
type FlagsChangedEvent struct {
	EmailID string `json:"email_id"`
	Flag    string `json:"flag"`
	Added   bool   `json:"added"`
}

// ContactEvent is emitted for contact lifecycle changes.
type ContactEvent struct {
	ContactID string `json:"contact_id"`
	Email     string `json:"email,omitempty"`
}
