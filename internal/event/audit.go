package event

import (
	"context"
	"log/slog"

	"github.com/mnohosten/mailbridge/internal/logging"
)

// AuditLogger records every event on the audit log stream.
type AuditLogger struct {
	id     string
	logger *slog.Logger
}

// NewAuditLogger creates a subscriber that writes events to the given
// logger. Subscribe it to "*" for a full trail.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		id:     "audit-logger",
		logger: logging.WithComponent(logger, "audit"),
	}
}

// ID returns the subscriber ID.
func (a *AuditLogger) ID() string { return a.id }

// Handle logs an event to the audit trail.
func (a *AuditLogger) Handle(ctx context.Context, event Event) error {
	a.logger.Info("audit",
		"event", event.Type(),
		"at", event.Timestamp(),
		"data", event.Payload(),
	)
	return nil
}
