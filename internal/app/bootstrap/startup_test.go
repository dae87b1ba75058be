package bootstrap

import (
	"strings"
	"testing"
	"time"

	userstore "github.com/albertduplantin/benevoles3-sub001/internal/app/store/users"
	"github.com/albertduplantin/benevoles3-sub001/internal/app/system/notify"
	"github.com/albertduplantin/benevoles3-sub001/internal/domain/models"
	"github.com/albertduplantin/benevoles3-sub001/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)

	if err := ensureAdmin(ctx, users, "Regie@Festival.test", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := users.GetByEmail(ctx, "regie@festival.test")
	if err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", u.Role)
	}
	if u.Status != "active" {
		t.Errorf("expected status active, got %q", u.Status)
	}
	if u.FullName != "Regie" {
		t.Errorf("expected name from email local part, got %q", u.FullName)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	vol := fx.CreateVolunteer(ctx, "Existing User", "existing@test.com")
	users := userstore.New(db)

	if err := ensureAdmin(ctx, users, "existing@test.com", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	u, err := users.GetByID(ctx, vol.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", u.Role)
	}
	if u.FullName != "Existing User" {
		t.Errorf("name changed to %q", u.FullName)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users := userstore.New(db)

	for i := 0; i < 2; i++ {
		if err := ensureAdmin(ctx, users, "admin@test.com", testLogger()); err != nil {
			t.Fatalf("ensureAdmin #%d failed: %v", i+1, err)
		}
	}
	n, err := db.Collection("users").CountDocuments(ctx, map[string]string{"email": "admin@test.com"})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin user, got %d", n)
	}
}

func validConfig() AppConfig {
	return AppConfig{
		TimeZone:           "Europe/Paris",
		Location:           time.UTC,
		CategoryCacheTTL:   5 * time.Minute,
		RosterMaxRetries:   5,
		RegisterRateLimit:  20,
		RegisterRateWindow: time.Minute,
		AuditLogRoster:     "all",
		AuditLogAdmin:      "db",
		NotifyEnabled:      true,
		MailSMTPHost:       "localhost",
	}
}

func TestValidateAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"no location", func(c *AppConfig) { c.Location = nil }, "time_zone"},
		{"zero ttl", func(c *AppConfig) { c.CategoryCacheTTL = 0 }, "category_cache_ttl"},
		{"zero retries", func(c *AppConfig) { c.RosterMaxRetries = 0 }, "roster_max_retries"},
		{"zero rate", func(c *AppConfig) { c.RegisterRateLimit = 0 }, "register_rate_limit"},
		{"bad audit mode", func(c *AppConfig) { c.AuditLogAdmin = "verbose" }, "audit_log_admin"},
		{"notify without smtp", func(c *AppConfig) { c.MailSMTPHost = "" }, "mail_smtp_host"},
		{"no smtp when notify off", func(c *AppConfig) { c.MailSMTPHost = ""; c.NotifyEnabled = false }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateAppConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildServices_WithoutRedis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := buildServices(validConfig(), DBDeps{MongoDatabase: db}, testLogger())
	defer svc.Limiter.Stop()

	if _, ok := svc.Notifier.(notify.Nop); !ok {
		t.Errorf("expected no-op notifier, got %T", svc.Notifier)
	}
	if svc.Worker != nil || svc.Queue != nil {
		t.Error("expected no queue or worker without Redis")
	}
	if svc.Coordinator == nil || svc.Policy == nil || svc.Scheduler == nil {
		t.Error("expected coordinator, policy and scheduler to be built")
	}
}

func TestBuildServices_WithRedis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rdb := testutil.SetupTestRedis(t)
	svc := buildServices(validConfig(), DBDeps{MongoDatabase: db, Redis: rdb}, testLogger())
	defer svc.Limiter.Stop()

	if _, ok := svc.Notifier.(*notify.QueueDispatcher); !ok {
		t.Errorf("expected queue dispatcher, got %T", svc.Notifier)
	}
	if svc.Worker == nil || svc.Queue == nil {
		t.Error("expected queue and worker with Redis")
	}
}
