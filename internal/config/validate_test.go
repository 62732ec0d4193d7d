package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mnohosten/mailbridge/internal/mailerr"
)

func validConfig() *Config {
	return &Config{
		Account: AccountConfig{
			User:     "user@example.com",
			Password: "secret",
		},
		SMTP: SMTPConfig{
			Host:        "smtp.example.com",
			Port:        465,
			Secure:      true,
			ConnTimeout: 30 * time.Second,
		},
		IMAP: IMAPConfig{
			Host:        "imap.example.com",
			Port:        993,
			TLS:         true,
			ConnTimeout: 30 * time.Second,
			AuthTimeout: 15 * time.Second,
		},
		Stats: StatsConfig{Window: 200},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config returned %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{
			name:    "missing user",
			mutate:  func(c *Config) { c.Account.User = "" },
			wantMsg: "account.user",
		},
		{
			name:    "missing password",
			mutate:  func(c *Config) { c.Account.Password = "" },
			wantMsg: "account.password",
		},
		{
			name:    "missing smtp host",
			mutate:  func(c *Config) { c.SMTP.Host = "" },
			wantMsg: "smtp.host",
		},
		{
			name:    "smtp port out of range",
			mutate:  func(c *Config) { c.SMTP.Port = 70000 },
			wantMsg: "smtp.port",
		},
		{
			name:    "zero imap port",
			mutate:  func(c *Config) { c.IMAP.Port = 0 },
			wantMsg: "imap.port",
		},
		{
			name:    "negative stats window",
			mutate:  func(c *Config) { c.Stats.Window = -1 },
			wantMsg: "stats.window",
		},
		{
			name:    "bad logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantMsg: "logging.level",
		},
		{
			name:    "bad logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantMsg: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}
			if !errors.Is(err, mailerr.ErrConfiguration) {
				t.Errorf("Validate() error is not ErrConfiguration: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Account.User = ""
	cfg.SMTP.Host = ""
	cfg.IMAP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() returned nil, want error")
	}

	for _, want := range []string{"account.user", "smtp.host", "imap.port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %q", err, want)
		}
	}
}
