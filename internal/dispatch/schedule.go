package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

// Status represents the state of a scheduled email.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ScheduledEmail is a deferred-send record. Creating one does not
// start any background trigger: delivery happens when a caller invokes
// DispatchDue, typically from cron or a CLI subcommand.
type ScheduledEmail struct {
	ID        string            `json:"id"`
	Request   model.SendRequest `json:"request"`
	SendAt    time.Time         `json:"send_at"`
	Status    Status            `json:"status"`
	MessageID string            `json:"message_id,omitempty"`
	LastError string            `json:"last_error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	SentAt    *time.Time        `json:"sent_at,omitempty"`
}

// SendFunc submits one request and returns the Message-ID.
type SendFunc func(ctx context.Context, req *model.SendRequest) (string, error)

// Scheduler tracks deferred-send records in memory for the process
// lifetime.
type Scheduler struct {
	mu     sync.Mutex
	items  map[string]*ScheduledEmail
	order  []string
	logger *slog.Logger
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		items:  make(map[string]*ScheduledEmail),
		logger: logging.WithComponent(logger, "scheduler"),
	}
}

// Schedule records a deferred send. The request is validated the same
// way an immediate send would be, so a bad request fails now rather
// than at dispatch time.
func (s *Scheduler) Schedule(req model.SendRequest, sendAt time.Time) (*ScheduledEmail, error) {
	if len(req.To) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", mailerr.ErrValidation)
	}
	if sendAt.IsZero() {
		return nil, fmt.Errorf("%w: send time is required", mailerr.ErrValidation)
	}

	item := &ScheduledEmail{
		ID:        uuid.NewString(),
		Request:   req,
		SendAt:    sendAt,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.items[item.ID] = item
	s.order = append(s.order, item.ID)
	s.mu.Unlock()

	s.logger.Info("email scheduled", "id", item.ID, "send_at", sendAt)
	return item.clone(), nil
}

// List returns all records in creation order.
func (s *Scheduler) List() []*ScheduledEmail {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ScheduledEmail, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].clone())
	}
	return out
}

// Cancel marks a pending record cancelled. Records in any other state
// cannot be cancelled.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: scheduled email %s", mailerr.ErrNotFound, id)
	}
	if item.Status != StatusPending {
		return fmt.Errorf("%w: scheduled email %s is %s", mailerr.ErrValidation, id, item.Status)
	}

	item.Status = StatusCancelled
	return nil
}

// DispatchDue sends every pending record due at now, sequentially, and
// returns the records it processed. A failed record keeps its error
// and is not retried; non-pending records are never re-sent. A record
// cancelled while its send is in flight keeps the cancelled status.
func (s *Scheduler) DispatchDue(ctx context.Context, now time.Time, send SendFunc) []*ScheduledEmail {
	due := s.takeDue(now)

	var processed []*ScheduledEmail
	for _, item := range due {
		// The record may have been cancelled since the snapshot.
		s.mu.Lock()
		stored, ok := s.items[item.ID]
		if !ok || stored.Status != StatusPending {
			s.mu.Unlock()
			continue
		}
		s.mu.Unlock()

		messageID, err := send(ctx, &item.Request)

		s.mu.Lock()
		stored = s.items[item.ID]
		if stored.Status != StatusPending {
			s.logger.Warn("scheduled email cancelled mid-send", "id", item.ID)
			s.mu.Unlock()
			continue
		}
		if err != nil {
			stored.Status = StatusFailed
			stored.LastError = err.Error()
			s.logger.Warn("scheduled send failed", "id", item.ID, "error", err)
		} else {
			sentAt := time.Now()
			stored.Status = StatusSent
			stored.MessageID = messageID
			stored.SentAt = &sentAt
			s.logger.Info("scheduled email sent", "id", item.ID, "message_id", messageID)
		}
		processed = append(processed, stored.clone())
		s.mu.Unlock()
	}

	return processed
}

// takeDue snapshots due pending records in creation order.
func (s *Scheduler) takeDue(now time.Time) []*ScheduledEmail {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*ScheduledEmail
	for _, id := range s.order {
		item := s.items[id]
		if item.Status == StatusPending && !item.SendAt.After(now) {
			due = append(due, item.clone())
		}
	}
	return due
}

func (e *ScheduledEmail) clone() *ScheduledEmail {
	cp := *e
	if e.SentAt != nil {
		t := *e.SentAt
		cp.SentAt = &t
	}
	return &cp
}
