// Package dispatch performs message operations: single transactional
// submissions, bulk fan-out with per-recipient accounting, forwards,
// replies, draft persistence and deletion.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mnohosten/mailbridge/internal/codec"
	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/model"
)

// Transport is the slice of an outbound session the engine needs.
type Transport interface {
	From() string
	Send(ctx context.Context, to []string, raw []byte) error
	Reset() error
}

// Mailbox is the slice of an inbound session the engine needs for
// forward, reply and draft operations.
type Mailbox interface {
	FetchOne(ctx context.Context, uid imap.UID) (*imapclient.FetchMessageBuffer, error)
	Append(ctx context.Context, folder string, raw []byte, flags []imap.Flag) error
	BodySection() *imap.FetchItemBodySection
}

// Remover is the slice of an inbound session the engine needs to
// delete a message.
type Remover interface {
	FetchOne(ctx context.Context, uid imap.UID) (*imapclient.FetchMessageBuffer, error)
	StoreFlags(ctx context.Context, uid imap.UID, flags []imap.Flag, add bool) error
	Expunge(ctx context.Context) error
}

// Engine performs message operations.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a dispatch engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logging.WithComponent(logger, "dispatch")}
}

// SendOne submits a single message transactionally. It returns the
// generated Message-ID; any failure surfaces as a typed error and
// nothing is partially sent.
func (e *Engine) SendOne(ctx context.Context, t Transport, req *model.SendRequest) (string, error) {
	if err := codec.LoadAttachments(req.Attachments); err != nil {
		return "", err
	}

	raw, messageID, err := codec.Encode(t.From(), req)
	if err != nil {
		return "", err
	}

	recipients := append(append([]string{}, req.To...), req.Cc...)
	if err := t.Send(ctx, recipients, raw); err != nil {
		return "", err
	}

	e.logger.Info("email sent", "message_id", messageID, "recipients", len(recipients))
	return messageID, nil
}

// SendBulk attempts each recipient independently and sequentially; one
// failure never aborts the rest. The result list has exactly one entry
// per input recipient in input order, and the summary counts are
// derived from it.
func (e *Engine) SendBulk(ctx context.Context, t Transport, recipients []string, subject, body string) model.BulkSummary {
	results := make([]model.BulkResult, 0, len(recipients))

	for _, rcpt := range recipients {
		result := model.BulkResult{Recipient: rcpt}

		if err := codec.ValidateAddress(rcpt); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		req := &model.SendRequest{To: []string{rcpt}, Subject: subject, Body: body}
		if _, err := e.SendOne(ctx, t, req); err != nil {
			result.Error = err.Error()
			// A server-side rejection can leave the MAIL transaction
			// open; abort it so the next recipient starts clean.
			if rerr := t.Reset(); rerr != nil {
				e.logger.Warn("transaction reset failed", "error", rerr)
			}
		} else {
			result.Success = true
		}
		results = append(results, result)
	}

	summary := model.Summarize(results)
	e.logger.Info("bulk send finished", "sent", summary.Sent, "failed", summary.Failed)
	return summary
}

// Forward resends an existing message to new recipients with its
// content quoted, prepending the note when supplied.
func (e *Engine) Forward(ctx context.Context, mbox Mailbox, t Transport, uid imap.UID, to []string, note string) (string, error) {
	buf, err := mbox.FetchOne(ctx, uid)
	if err != nil {
		return "", err
	}
	orig := codec.Decode(buf, mbox.BodySection())

	var body strings.Builder
	if note != "" {
		body.WriteString(note)
		body.WriteString("\n\n")
	}
	body.WriteString("---------- Forwarded message ----------\n")
	fmt.Fprintf(&body, "From: %s\n", orig.From)
	fmt.Fprintf(&body, "Date: %s\n", orig.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	fmt.Fprintf(&body, "Subject: %s\n", orig.Subject)
	fmt.Fprintf(&body, "To: %s\n\n", strings.Join(orig.To, ", "))
	body.WriteString(orig.Body)

	req := &model.SendRequest{
		To:      to,
		Subject: prefixSubject("Fwd:", orig.Subject),
		Body:    body.String(),
	}
	return e.SendOne(ctx, t, req)
}

// Reply answers an existing message. The recipient set is the original
// sender, widened to the original To and Cc lists (minus ourselves)
// when replyAll is set.
func (e *Engine) Reply(ctx context.Context, mbox Mailbox, t Transport, uid imap.UID, body string, replyAll bool) (string, error) {
	buf, err := mbox.FetchOne(ctx, uid)
	if err != nil {
		return "", err
	}
	orig := codec.Decode(buf, mbox.BodySection())

	req := &model.SendRequest{
		To:      replyRecipients(orig, t.From(), replyAll),
		Subject: prefixSubject("Re:", orig.Subject),
		Body:    body,
	}
	return e.SendOne(ctx, t, req)
}

// Delete flags a message \Deleted and expunges it. A UID FETCH for an
// absent UID succeeds with no messages, so existence is checked
// explicitly and a missing id surfaces ErrNotFound before any flag is
// stored.
func (e *Engine) Delete(ctx context.Context, mbox Remover, uid imap.UID) error {
	if _, err := mbox.FetchOne(ctx, uid); err != nil {
		return err
	}
	if err := mbox.StoreFlags(ctx, uid, []imap.Flag{imap.FlagDeleted}, true); err != nil {
		return err
	}
	if err := mbox.Expunge(ctx); err != nil {
		return err
	}

	e.logger.Info("email deleted", "uid", uid)
	return nil
}

// CreateDraft persists an unsent message into the drafts folder. This
// is single-shot persistence; nothing schedules a later send.
func (e *Engine) CreateDraft(ctx context.Context, mbox Mailbox, from, folder string, req *model.SendRequest) (string, error) {
	if err := codec.LoadAttachments(req.Attachments); err != nil {
		return "", err
	}

	raw, messageID, err := codec.Encode(from, req)
	if err != nil {
		return "", err
	}

	if err := mbox.Append(ctx, folder, raw, []imap.Flag{imap.FlagDraft}); err != nil {
		return "", err
	}

	e.logger.Info("draft created", "message_id", messageID, "folder", folder)
	return messageID, nil
}

// replyRecipients computes the reply target set in original order,
// deduplicated, excluding the replying account.
func replyRecipients(orig *model.EmailMessage, self string, replyAll bool) []string {
	candidates := []string{orig.From}
	if replyAll {
		candidates = append(candidates, orig.To...)
		candidates = append(candidates, orig.Cc...)
	}

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, addr := range candidates {
		key := strings.ToLower(addr)
		if addr == "" || seen[key] || strings.EqualFold(addr, self) {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}

	// Replying to our own message would otherwise target nobody; fall
	// back to the original To list.
	if len(out) == 0 {
		for _, addr := range orig.To {
			key := strings.ToLower(addr)
			if addr == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, addr)
		}
	}
	return out
}

// prefixSubject adds the given prefix unless one is already there.
func prefixSubject(prefix, subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), strings.ToLower(prefix)) {
		return subject
	}
	return prefix + " " + subject
}
