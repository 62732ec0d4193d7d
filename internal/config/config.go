package config

import "time"

// Config is the root configuration structure. The service is
// constructed once with a fully resolved value; business methods never
// read process environment state.
type Config struct {
	Account  AccountConfig  `mapstructure:"account"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	IMAP     IMAPConfig     `mapstructure:"imap"`
	API      APIConfig      `mapstructure:"api"`
	Contacts ContactsConfig `mapstructure:"contacts"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AccountConfig holds the credential pair shared by both protocols.
type AccountConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// SMTPConfig defines the outbound submission settings.
type SMTPConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Secure             bool          `mapstructure:"secure"`
	RejectUnauthorized bool          `mapstructure:"reject_unauthorized"`
	ConnTimeout        time.Duration `mapstructure:"conn_timeout"`
}

// IMAPConfig defines the inbound mailbox settings.
type IMAPConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	TLS                bool          `mapstructure:"tls"`
	RejectUnauthorized bool          `mapstructure:"reject_unauthorized"`
	MarkSeen           bool          `mapstructure:"mark_seen"`
	ConnTimeout        time.Duration `mapstructure:"conn_timeout"`
	AuthTimeout        time.Duration `mapstructure:"auth_timeout"`
	DraftsFolder       string        `mapstructure:"drafts_folder"`
	SentFolder         string        `mapstructure:"sent_folder"`
}

// APIConfig defines the REST API server settings.
type APIConfig struct {
	ListenAddr  string        `mapstructure:"listen_addr"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTExpiry   time.Duration `mapstructure:"jwt_expiry"`
	APIKey      string        `mapstructure:"api_key"`
	EnableCORS  bool          `mapstructure:"enable_cors"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
}

// ContactsConfig defines address book storage settings. An empty
// Database keeps contacts in memory for the process lifetime.
type ContactsConfig struct {
	Database string `mapstructure:"database"`
}

// StatsConfig defines statistics aggregation settings. Window bounds
// the number of recent messages scanned for the top-senders ranking.
type StatsConfig struct {
	Window int `mapstructure:"window"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	AddSource bool   `mapstructure:"add_source"`
}
