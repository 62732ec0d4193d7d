// Package session manages protocol sessions against the configured
// SMTP and IMAP servers. One session backs one logical operation or
// batch; acquisition failures surface immediately and are never
// retried here.
package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/mnohosten/mailbridge/internal/config"
	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/mailerr"
)

// Session is a releasable protocol session.
type Session interface {
	Close() error
}

// Manager opens and tears down protocol sessions.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "session"),
	}
}

// WithInbound runs fn with an authenticated mailbox session, releasing
// it on every exit path.
func (m *Manager) WithInbound(ctx context.Context, fn func(*Inbound) error) error {
	in, err := m.AcquireInbound(ctx)
	if err != nil {
		return err
	}
	defer m.Release(in)
	return fn(in)
}

// WithOutbound runs fn with an authenticated transport session,
// releasing it on every exit path.
func (m *Manager) WithOutbound(ctx context.Context, fn func(*Outbound) error) error {
	out, err := m.AcquireOutbound(ctx)
	if err != nil {
		return err
	}
	defer m.Release(out)
	return fn(out)
}

// Release closes a session.
func (m *Manager) Release(s Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		m.logger.Debug("session close failed", "error", err)
	}
}

// dial opens a TCP connection with the given connect timeout, wrapping
// it in TLS when implicit is set.
func dial(ctx context.Context, host string, port int, timeout time.Duration, implicit, rejectUnauthorized bool) (net.Conn, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", mailerr.ErrConnection, addr, err)
	}

	if !implicit {
		return conn, nil
	}

	tlsConn := tls.Client(conn, tlsConfigFor(host, rejectUnauthorized))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: TLS handshake with %s: %v", mailerr.ErrConnection, addr, err)
	}
	return tlsConn, nil
}

func tlsConfigFor(host string, rejectUnauthorized bool) *tls.Config {
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: !rejectUnauthorized,
	}
}
