// Package service exposes the email and contact operations consumed
// by the front-ends. Every operation acquires its protocol sessions
// through the session manager and returns domain values or typed
// errors; formatting is the front-ends' concern.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/mnohosten/mailbridge/internal/codec"
	"github.com/mnohosten/mailbridge/internal/config"
	"github.com/mnohosten/mailbridge/internal/contacts"
	"github.com/mnohosten/mailbridge/internal/dispatch"
	"github.com/mnohosten/mailbridge/internal/event"
	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
	"github.com/mnohosten/mailbridge/internal/search"
	"github.com/mnohosten/mailbridge/internal/session"
	"github.com/mnohosten/mailbridge/internal/stats"
)

// Service is the email operations facade.
type Service struct {
	cfg        *config.Config
	logger     *slog.Logger
	sessions   *session.Manager
	dispatcher *dispatch.Engine
	scheduler  *dispatch.Scheduler
	aggregator *stats.Aggregator
	contacts   contacts.Store
	bus        *event.Bus
}

// New builds a service from resolved configuration. The contact store
// is sqlite-backed when contacts.database is set, in-memory otherwise.
func New(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	var store contacts.Store
	if cfg.Contacts.Database != "" {
		sqlStore, err := contacts.NewSQLStore(cfg.Contacts.Database)
		if err != nil {
			return nil, fmt.Errorf("%w: contacts database: %v", mailerr.ErrConfiguration, err)
		}
		store = sqlStore
	} else {
		store = contacts.NewMemoryStore()
	}

	bus := event.NewBus(event.DefaultBusConfig(), logger)
	bus.Subscribe("*", event.NewAuditLogger(logger))
	bus.Start()

	return &Service{
		cfg:        cfg,
		logger:     logging.WithComponent(logger, "service"),
		sessions:   session.NewManager(cfg, logger),
		dispatcher: dispatch.NewEngine(logger),
		scheduler:  dispatch.NewScheduler(logger),
		aggregator: stats.NewAggregator(cfg.Stats.Window, cfg.IMAP.SentFolder, logger),
		contacts:   store,
		bus:        bus,
	}, nil
}

// Close releases the service's long-lived resources.
func (s *Service) Close() error {
	s.bus.Stop()
	return s.contacts.Close()
}

// SendEmail submits one plain (optionally HTML) message.
func (s *Service) SendEmail(ctx context.Context, to []string, subject, body, htmlBody string) (string, error) {
	return s.SendEmailWithAttachments(ctx, &model.SendRequest{
		To:       to,
		Subject:  subject,
		Body:     body,
		HTMLBody: htmlBody,
	})
}

// SendEmailWithAttachments submits one message with any attachments
// fully read before the call returns.
func (s *Service) SendEmailWithAttachments(ctx context.Context, req *model.SendRequest) (string, error) {
	var messageID string
	err := s.sessions.WithOutbound(ctx, func(out *session.Outbound) error {
		id, err := s.dispatcher.SendOne(ctx, out, req)
		messageID = id
		return err
	})
	if err != nil {
		return "", err
	}

	s.bus.Publish(event.EventEmailSent, event.EmailSentEvent{
		MessageID:  messageID,
		Recipients: req.To,
		Subject:    req.Subject,
	})
	return messageID, nil
}

// ReadRecentEmails returns the newest count messages.
func (s *Service) ReadRecentEmails(ctx context.Context, count int) ([]*model.EmailMessage, error) {
	var msgs []*model.EmailMessage
	err := s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		var err error
		msgs, err = search.ReadRecent(ctx, in, count)
		return err
	})
	return msgs, err
}

// GetEmailByID fetches one message, or ErrNotFound.
func (s *Service) GetEmailByID(ctx context.Context, id string) (*model.EmailMessage, error) {
	uid, err := parseEmailID(id)
	if err != nil {
		return nil, err
	}

	var msg *model.EmailMessage
	err = s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		buf, err := in.FetchOne(ctx, uid)
		if err != nil {
			return err
		}
		msg = codec.Decode(buf, in.BodySection())
		return nil
	})
	return msg, err
}

// DeleteEmail flags a message deleted and expunges. It either fully
// succeeds or reports failure; no ambiguous partial state remains.
func (s *Service) DeleteEmail(ctx context.Context, id string) error {
	uid, err := parseEmailID(id)
	if err != nil {
		return err
	}

	err = s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		return s.dispatcher.Delete(ctx, in, uid)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(event.EventEmailDeleted, event.EmailDeletedEvent{EmailID: id})
	return nil
}

// MarkEmailAsRead sets or clears the \Seen flag. The operation is
// idempotent in either direction.
func (s *Service) MarkEmailAsRead(ctx context.Context, id string, read bool) error {
	uid, err := parseEmailID(id)
	if err != nil {
		return err
	}

	err = s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		return in.StoreFlags(ctx, uid, []imap.Flag{imap.FlagSeen}, read)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(event.EventEmailFlagsChanged, event.FlagsChangedEvent{
		EmailID: id,
		Flag:    string(imap.FlagSeen),
		Added:   read,
	})
	return nil
}

// SearchEmails returns one page of filtered messages, newest first.
func (s *Service) SearchEmails(ctx context.Context, filter model.EmailFilter, page, limit int) (*model.SearchResult, error) {
	var result *model.SearchResult
	err := s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		var err error
		result, err = search.Search(ctx, in, filter, page, limit)
		return err
	})
	return result, err
}

// ForwardEmail resends an existing message to new recipients.
func (s *Service) ForwardEmail(ctx context.Context, id string, to []string, note string) (string, error) {
	uid, err := parseEmailID(id)
	if err != nil {
		return "", err
	}

	var messageID string
	err = s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		return s.sessions.WithOutbound(ctx, func(out *session.Outbound) error {
			var err error
			messageID, err = s.dispatcher.Forward(ctx, in, out, uid, to, note)
			return err
		})
	})
	if err != nil {
		return "", err
	}

	s.bus.Publish(event.EventEmailSent, event.EmailSentEvent{MessageID: messageID, Recipients: to})
	return messageID, nil
}

// ReplyToEmail answers an existing message.
func (s *Service) ReplyToEmail(ctx context.Context, id, body string, replyAll bool) (string, error) {
	uid, err := parseEmailID(id)
	if err != nil {
		return "", err
	}

	var messageID string
	err = s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		return s.sessions.WithOutbound(ctx, func(out *session.Outbound) error {
			var err error
			messageID, err = s.dispatcher.Reply(ctx, in, out, uid, body, replyAll)
			return err
		})
	})
	if err != nil {
		return "", err
	}

	s.bus.Publish(event.EventEmailSent, event.EmailSentEvent{MessageID: messageID})
	return messageID, nil
}

// GetEmailStatistics aggregates mailbox counts and the top-senders
// ranking.
func (s *Service) GetEmailStatistics(ctx context.Context) (*model.Statistics, error) {
	var result *model.Statistics
	err := s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		var err error
		result, err = s.aggregator.GetStatistics(ctx, in)
		return err
	})
	return result, err
}

// CreateDraft saves an unsent message into the drafts folder.
func (s *Service) CreateDraft(ctx context.Context, req *model.SendRequest) (string, error) {
	var messageID string
	err := s.sessions.WithInbound(ctx, func(in *session.Inbound) error {
		var err error
		messageID, err = s.dispatcher.CreateDraft(ctx, in, s.cfg.Account.User, s.cfg.IMAP.DraftsFolder, req)
		return err
	})
	if err != nil {
		return "", err
	}

	s.bus.Publish(event.EventDraftCreated, event.EmailSentEvent{MessageID: messageID, Recipients: req.To})
	return messageID, nil
}

// ScheduleEmail records a deferred send. Delivery happens when
// DispatchDueScheduled is invoked; nothing runs in the background.
func (s *Service) ScheduleEmail(ctx context.Context, req model.SendRequest, sendAt time.Time) (*dispatch.ScheduledEmail, error) {
	item, err := s.scheduler.Schedule(req, sendAt)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(event.EventEmailScheduled, item)
	return item, nil
}

// ListScheduled returns all deferred-send records.
func (s *Service) ListScheduled() []*dispatch.ScheduledEmail {
	return s.scheduler.List()
}

// CancelScheduled cancels a pending deferred send.
func (s *Service) CancelScheduled(id string) error {
	return s.scheduler.Cancel(id)
}

// DispatchDueScheduled sends every deferred record that is due,
// sharing one transport session across the run. Failure to acquire the
// session aborts before anything is attempted.
func (s *Service) DispatchDueScheduled(ctx context.Context) ([]*dispatch.ScheduledEmail, error) {
	var processed []*dispatch.ScheduledEmail
	err := s.sessions.WithOutbound(ctx, func(out *session.Outbound) error {
		processed = s.scheduler.DispatchDue(ctx, time.Now(), func(ctx context.Context, req *model.SendRequest) (string, error) {
			id, err := s.dispatcher.SendOne(ctx, out, req)
			if err != nil {
				// Keep the shared session usable for the next record.
				if rerr := out.Reset(); rerr != nil {
					s.logger.Warn("transaction reset failed", "error", rerr)
				}
			}
			return id, err
		})
		return nil
	})
	return processed, err
}

// BulkSendEmails attempts each recipient independently; per-recipient
// failures land in the summary instead of aborting the batch. Only a
// failure to begin the batch at all surfaces as an error.
func (s *Service) BulkSendEmails(ctx context.Context, recipients []string, subject, body string) (*model.BulkSummary, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", mailerr.ErrValidation)
	}

	var summary model.BulkSummary
	err := s.sessions.WithOutbound(ctx, func(out *session.Outbound) error {
		summary = s.dispatcher.SendBulk(ctx, out, recipients, subject, body)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(event.EventEmailBulkSent, event.BulkSentEvent{Sent: summary.Sent, Failed: summary.Failed})
	return &summary, nil
}

// parseEmailID converts the protocol-assigned id back to a UID.
func parseEmailID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: invalid email id %q", mailerr.ErrValidation, id)
	}
	return imap.UID(n), nil
}
