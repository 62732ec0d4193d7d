package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/mnohosten/mailbridge/internal/mailerr"
)

// Outbound is an authenticated SMTP submission session.
type Outbound struct {
	client *smtp.Client
	from   string
}

// AcquireOutbound opens and authenticates a new SMTP session. The
// caller must release it.
func (m *Manager) AcquireOutbound(ctx context.Context) (*Outbound, error) {
	cfg := m.cfg.SMTP

	conn, err := dial(ctx, cfg.Host, cfg.Port, cfg.ConnTimeout, cfg.Secure, cfg.RejectUnauthorized)
	if err != nil {
		return nil, err
	}

	client := smtp.NewClient(conn)

	if !cfg.Secure {
		if err := client.StartTLS(tlsConfigFor(cfg.Host, cfg.RejectUnauthorized)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%w: STARTTLS with %s: %v", mailerr.ErrConnection, cfg.Host, err)
		}
	}

	auth := sasl.NewPlainClient("", m.cfg.Account.User, m.cfg.Account.Password)
	if err := client.Auth(auth); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: SMTP auth for %s: %v", mailerr.ErrAuthentication, m.cfg.Account.User, err)
	}

	m.logger.Debug("outbound session acquired", "host", cfg.Host)

	return &Outbound{client: client, from: m.cfg.Account.User}, nil
}

// Close quits the session, falling back to a hard close.
func (s *Outbound) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Quit(); err != nil {
		return s.client.Close()
	}
	return nil
}

// From returns the authenticated sender address.
func (s *Outbound) From() string {
	return s.from
}

// Reset aborts any open mail transaction so the session can be reused
// after a failed send.
func (s *Outbound) Reset() error {
	if err := s.client.Reset(); err != nil {
		return classifySMTP(fmt.Errorf("resetting transaction: %w", err))
	}
	return nil
}

// Send submits one raw message to the given recipients as a single
// transaction.
func (s *Outbound) Send(ctx context.Context, to []string, raw []byte) error {
	if err := s.client.Mail(s.from, nil); err != nil {
		return classifySMTP(fmt.Errorf("setting sender: %w", err))
	}
	for _, rcpt := range to {
		if err := s.client.Rcpt(rcpt, nil); err != nil {
			return classifySMTP(fmt.Errorf("adding recipient %s: %w", rcpt, err))
		}
	}

	w, err := s.client.Data()
	if err != nil {
		return classifySMTP(fmt.Errorf("starting data: %w", err))
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return classifySMTP(fmt.Errorf("writing message: %w", err))
	}
	if err := w.Close(); err != nil {
		return classifySMTP(fmt.Errorf("finishing data: %w", err))
	}
	return nil
}

// classifySMTP tags server rejections as protocol errors and anything
// else as connection failures.
func classifySMTP(err error) error {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return fmt.Errorf("%w: %v", mailerr.ErrProtocol, err)
	}
	return fmt.Errorf("%w: %v", mailerr.ErrConnection, err)
}
