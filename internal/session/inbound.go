package session

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mnohosten/mailbridge/internal/mailerr"
)

// Inbound is an authenticated IMAP session with INBOX selected.
type Inbound struct {
	client      *imapclient.Client
	conn        net.Conn
	bodySection *imap.FetchItemBodySection
}

// AcquireInbound opens, authenticates and selects INBOX on a new IMAP
// session. The caller must release it.
func (m *Manager) AcquireInbound(ctx context.Context) (*Inbound, error) {
	cfg := m.cfg.IMAP

	conn, err := dial(ctx, cfg.Host, cfg.Port, cfg.ConnTimeout, cfg.TLS, cfg.RejectUnauthorized)
	if err != nil {
		return nil, err
	}

	client := imapclient.New(conn, nil)

	// The auth timeout covers the login round-trip.
	if cfg.AuthTimeout > 0 {
		conn.SetDeadline(time.Now().Add(cfg.AuthTimeout))
	}
	if err := client.Login(m.cfg.Account.User, m.cfg.Account.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: IMAP login for %s: %v", mailerr.ErrAuthentication, m.cfg.Account.User, err)
	}
	conn.SetDeadline(time.Time{})

	selected, err := client.Select("INBOX", nil).Wait()
	if err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, fmt.Errorf("%w: selecting INBOX: %v", mailerr.ErrProtocol, err)
	}

	m.logger.Debug("inbound session acquired", "host", cfg.Host, "messages", selected.NumMessages)

	return &Inbound{
		client: client,
		conn:   conn,
		// Peek fetches leave \Seen untouched.
		bodySection: &imap.FetchItemBodySection{Peek: !cfg.MarkSeen},
	}, nil
}

// Close logs out and closes the connection.
func (s *Inbound) Close() error {
	if s.client == nil {
		return nil
	}
	_ = s.client.Logout().Wait()
	return s.client.Close()
}

// SearchUIDs runs a UID search and returns the matching UIDs in
// ascending order.
func (s *Inbound) SearchUIDs(ctx context.Context, criteria *imap.SearchCriteria) ([]imap.UID, error) {
	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: UID search: %v", mailerr.ErrProtocol, err)
	}
	return data.AllUIDs(), nil
}

// Fetch retrieves the given UIDs. When withBody is set the full
// message source is fetched as well; otherwise only envelope and flags
// come back. Whether a body fetch sets \Seen follows the configured
// mark-seen policy.
func (s *Inbound) Fetch(ctx context.Context, uids []imap.UID, withBody bool) ([]*imapclient.FetchMessageBuffer, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	opts := &imap.FetchOptions{
		Envelope: true,
		Flags:    true,
		UID:      true,
	}
	if withBody {
		opts.BodySection = []*imap.FetchItemBodySection{s.bodySection}
	}

	msgs, err := s.client.Fetch(imap.UIDSetNum(uids...), opts).Collect()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %d messages: %v", mailerr.ErrProtocol, len(uids), err)
	}
	return msgs, nil
}

// FetchOne retrieves a single message with its body, or ErrNotFound.
func (s *Inbound) FetchOne(ctx context.Context, uid imap.UID) (*imapclient.FetchMessageBuffer, error) {
	msgs, err := s.Fetch(ctx, []imap.UID{uid}, true)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: email %d", mailerr.ErrNotFound, uid)
	}
	return msgs[0], nil
}

// StoreFlags adds or removes flags on a message.
func (s *Inbound) StoreFlags(ctx context.Context, uid imap.UID, flags []imap.Flag, add bool) error {
	op := imap.StoreFlagsAdd
	if !add {
		op = imap.StoreFlagsDel
	}

	cmd := s.client.Store(imap.UIDSetNum(uid), &imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  flags,
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("%w: storing flags on %d: %v", mailerr.ErrProtocol, uid, err)
	}
	return nil
}

// Expunge permanently removes messages flagged \Deleted.
func (s *Inbound) Expunge(ctx context.Context) error {
	if err := s.client.Expunge().Close(); err != nil {
		return fmt.Errorf("%w: expunge: %v", mailerr.ErrProtocol, err)
	}
	return nil
}

// Append stores a raw message into the given folder.
func (s *Inbound) Append(ctx context.Context, folder string, raw []byte, flags []imap.Flag) error {
	cmd := s.client.Append(folder, int64(len(raw)), &imap.AppendOptions{Flags: flags})
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("%w: appending to %s: %v", mailerr.ErrProtocol, folder, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("%w: appending to %s: %v", mailerr.ErrProtocol, folder, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: appending to %s: %v", mailerr.ErrProtocol, folder, err)
	}
	return nil
}

// Status returns message and unseen counts for a folder without
// selecting it.
func (s *Inbound) Status(ctx context.Context, folder string) (total, unseen int, err error) {
	data, err := s.client.Status(folder, &imap.StatusOptions{
		NumMessages: true,
		NumUnseen:   true,
	}).Wait()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: status of %s: %v", mailerr.ErrProtocol, folder, err)
	}
	if data.NumMessages != nil {
		total = int(*data.NumMessages)
	}
	if data.NumUnseen != nil {
		unseen = int(*data.NumUnseen)
	}
	return total, unseen, nil
}

// BodySection returns the fetch item used for body retrieval on this
// session, for looking bodies up in fetched buffers.
func (s *Inbound) BodySection() *imap.FetchItemBodySection {
	return s.bodySection
}
