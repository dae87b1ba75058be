// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything the
// volunteer app itself needs lives here and is passed to every lifecycle
// hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// Redis backs the notification queue. Blank address means notifications
	// are disabled and a no-op dispatcher is used.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// BaseURL prefixes links in notification emails.
	BaseURL  string
	SiteName string

	// TimeZone is the festival's IANA zone, used to read form times without
	// an offset and to format dates in messages.
	TimeZone string
	Location *time.Location

	CategoryCacheTTL   time.Duration
	RosterMaxRetries   int
	RegisterRateLimit  int
	RegisterRateWindow time.Duration
	NotifyEnabled      bool

	// Audit logging: "all", "db", "log" or "off".
	AuditLogRoster string
	AuditLogAdmin  string

	// AdminEmail, when set, is promoted (or created) as admin on startup.
	AdminEmail string
}
