package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the flat environment variable names
// the surrounding tooling exports.
var envBindings = map[string]string{
	"account.user":             "EMAIL_USER",
	"account.password":         "EMAIL_PASS",
	"smtp.host":                "SMTP_HOST",
	"smtp.port":                "SMTP_PORT",
	"smtp.secure":              "SMTP_SECURE",
	"smtp.reject_unauthorized": "SMTP_REJECT_UNAUTHORIZED",
	"imap.host":                "IMAP_HOST",
	"imap.port":                "IMAP_PORT",
	"imap.tls":                 "IMAP_TLS",
	"imap.reject_unauthorized": "IMAP_REJECT_UNAUTHORIZED",
	"imap.mark_seen":           "IMAP_MARK_SEEN",
	"imap.conn_timeout":        "IMAP_CONN_TIMEOUT",
	"imap.auth_timeout":        "IMAP_AUTH_TIMEOUT",
}

// Load reads configuration from an optional file, a .env file when
// present, and the environment. Validation runs before the config is
// returned so a broken setup fails fast.
func Load(configPath string) (*Config, error) {
	// A .env alongside the process overrides nothing already exported.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("MAILBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Protocol defaults
	v.SetDefault("smtp.secure", true)
	v.SetDefault("smtp.reject_unauthorized", true)
	v.SetDefault("smtp.conn_timeout", 30*time.Second)
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.reject_unauthorized", true)
	v.SetDefault("imap.mark_seen", false)
	v.SetDefault("imap.conn_timeout", 30*time.Second)
	v.SetDefault("imap.auth_timeout", 15*time.Second)
	v.SetDefault("imap.drafts_folder", "Drafts")
	v.SetDefault("imap.sent_folder", "Sent")

	// API defaults
	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.jwt_expiry", 24*time.Hour)
	v.SetDefault("api.enable_cors", false)

	// Stats defaults
	v.SetDefault("stats.window", 200)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
}
