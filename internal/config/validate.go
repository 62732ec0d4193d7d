package config

import (
	"errors"
	"fmt"

	"github.com/mnohosten/mailbridge/internal/mailerr"
)

// Validate checks the configuration for errors. All problems are
// collected so a broken setup reports everything at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Account.User == "" {
		errs = append(errs, errors.New("account.user (EMAIL_USER) is required"))
	}
	if c.Account.Password == "" {
		errs = append(errs, errors.New("account.password (EMAIL_PASS) is required"))
	}

	if c.SMTP.Host == "" {
		errs = append(errs, errors.New("smtp.host (SMTP_HOST) is required"))
	}
	if err := validatePort(c.SMTP.Port, "smtp.port (SMTP_PORT)"); err != nil {
		errs = append(errs, err)
	}
	if c.SMTP.ConnTimeout <= 0 {
		errs = append(errs, errors.New("smtp.conn_timeout must be positive"))
	}

	if c.IMAP.Host == "" {
		errs = append(errs, errors.New("imap.host (IMAP_HOST) is required"))
	}
	if err := validatePort(c.IMAP.Port, "imap.port (IMAP_PORT)"); err != nil {
		errs = append(errs, err)
	}
	if c.IMAP.ConnTimeout <= 0 {
		errs = append(errs, errors.New("imap.conn_timeout must be positive"))
	}
	if c.IMAP.AuthTimeout <= 0 {
		errs = append(errs, errors.New("imap.auth_timeout must be positive"))
	}

	if c.Stats.Window <= 0 {
		errs = append(errs, errors.New("stats.window must be positive"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error (got: %s)", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: json, text (got: %s)", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", mailerr.ErrConfiguration, errors.Join(errs...))
	}

	return nil
}

func validatePort(port int, name string) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", name)
	}
	return nil
}
