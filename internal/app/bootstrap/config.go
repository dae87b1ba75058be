// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the volunteer app.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, redis_addr, etc.
//   - Environment variables: BENEVOLES_MONGO_URI, BENEVOLES_REDIS_ADDR, etc.
//   - Command-line flags: --mongo_uri, --redis_addr, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "benevoles", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "benevoles-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session lifetime"},

	// Notification queue
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address for the notification queue (blank disables notifications)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "notify_enabled", Default: true, Desc: "Send notification emails"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port (587 STARTTLS, 465 implicit TLS)"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "benevoles@festival.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Bénévoles du festival", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},
	{Name: "site_name", Default: "Bénévoles du festival", Desc: "Name shown in emails"},
	{Name: "time_zone", Default: "Europe/Paris", Desc: "Festival time zone (IANA name)"},

	// Roster behaviour
	{Name: "category_cache_ttl", Default: "5m", Desc: "How long the category mapping is cached"},
	{Name: "roster_max_retries", Default: 5, Desc: "Attempts for a roster write before giving up on concurrent updates"},
	{Name: "register_rate_limit", Default: 20, Desc: "Self-service roster changes allowed per user per window"},
	{Name: "register_rate_window", Default: "1m", Desc: "Window for register_rate_limit"},

	// Audit logging settings
	{Name: "audit_log_roster", Default: "all", Desc: "Roster event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "admin_email", Default: "", Desc: "Email of a user to promote (or create) as admin on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence,
// flags > env (BENEVOLES_*) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BENEVOLES", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		NotifyEnabled: appValues.Bool("notify_enabled"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL:  appValues.String("base_url"),
		SiteName: appValues.String("site_name"),
		TimeZone: appValues.String("time_zone"),

		CategoryCacheTTL:   appValues.Duration("category_cache_ttl", 5*time.Minute),
		RosterMaxRetries:   appValues.Int("roster_max_retries"),
		RegisterRateLimit:  appValues.Int("register_rate_limit"),
		RegisterRateWindow: appValues.Duration("register_rate_window", time.Minute),

		AuditLogRoster: appValues.String("audit_log_roster"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),

		AdminEmail: appValues.String("admin_email"),
	}

	loc, err := time.LoadLocation(appCfg.TimeZone)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("time_zone %q: %w", appCfg.TimeZone, err)
	}
	appCfg.Location = loc

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before anything
// connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(appCfg)
}

func validateAppConfig(appCfg AppConfig) error {
	if appCfg.Location == nil {
		return fmt.Errorf("time_zone %q could not be loaded", appCfg.TimeZone)
	}
	if appCfg.CategoryCacheTTL <= 0 {
		return fmt.Errorf("category_cache_ttl must be positive")
	}
	if appCfg.RosterMaxRetries < 1 {
		return fmt.Errorf("roster_max_retries must be at least 1")
	}
	if appCfg.RegisterRateLimit < 1 || appCfg.RegisterRateWindow <= 0 {
		return fmt.Errorf("register_rate_limit and register_rate_window must be positive")
	}
	for name, v := range map[string]string{"audit_log_roster": appCfg.AuditLogRoster, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be all, db, log or off (got %q)", name, v)
		}
	}
	if appCfg.NotifyEnabled && appCfg.MailSMTPHost == "" {
		return fmt.Errorf("notify_enabled requires mail_smtp_host")
	}
	return nil
}
