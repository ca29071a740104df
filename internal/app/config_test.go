package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Server.IsProduction())
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 4, cfg.Server.Uploads.MaxImages)
	require.Equal(t, int64(8<<20), cfg.Server.Uploads.MaxImageBytes)
	require.Equal(t, int64(4<<20), cfg.Server.Uploads.MaxProfileBytes)
	require.Equal(t, []string{"https://autodetail.example.com", "https://admin.example.com"}, cfg.Server.CORS.AllowedOrigins)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Host)
	dbCfg := cfg.Database.DatabaseSettings()
	require.Equal(t, "app", dbCfg.User)
	require.Equal(t, "autodetail", dbCfg.Name)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "autodetail", cfg.Auth.JWT.Issuer)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 5*time.Minute, cfg.Auth.VerificationCodeTTL())
	require.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL())
	require.Len(t, cfg.Auth.SeedOptions(), 1)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, "s3", cfg.Storage.Driver)
	s3 := cfg.Storage.S3Settings()
	require.Equal(t, "parts", s3.Bucket)
	require.Equal(t, "eu-central-1", s3.Region)
	require.True(t, s3.ForcePathStyle)
	require.Equal(t, "https://cdn.example.com", s3.PublicBaseURL)

	require.Equal(t, 30*time.Minute, cfg.Rates.TTL)
	require.Equal(t, "USD", cfg.Rates.DefaultBase)
	require.Equal(t, "EUR", cfg.Rates.DefaultTarget)

	require.Equal(t, "support@example.com", cfg.Contact.To)
	require.Equal(t, "https://autodetail.example.com", cfg.FrontendURL)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@every 30m", cfg.Maintenance.Schedule)
	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, 7*24*time.Hour, cfg.Maintenance.PendingRetention)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.False(t, cfg.Server.IsProduction())
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "local", cfg.Storage.Driver)
	require.Equal(t, "/uploads", cfg.Storage.PublicPrefix)
	require.Equal(t, time.Hour, cfg.Rates.TTL)
	require.Equal(t, 6, cfg.Server.Uploads.MaxImages)
	require.Empty(t, cfg.Auth.SeedOptions())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("AUTODETAIL_SERVER_PORT", "7070")
	t.Setenv("AUTODETAIL_CONTACT_TO", "owner@example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "owner@example.com", cfg.Contact.To)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
		VerificationTTL: time.Minute,
		ResetTTL:        time.Hour,
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())
	require.Equal(t, time.Minute, cfg.VerificationCodeTTL())
	require.Equal(t, time.Hour, cfg.ResetTokenTTL())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultAccessTokenTTL, cfg.JWTServiceConfig().AccessTokenTTL)
	require.Equal(t, defaultVerificationTTL, cfg.VerificationCodeTTL())
	require.Equal(t, defaultResetTTL, cfg.ResetTokenTTL())
}

func TestEmailConfigAdapter(t *testing.T) {
	cfg := EmailConfig{
		SMTP: SMTPConfig{
			Enabled:  true,
			Host:     "smtp.example.com",
			Port:     2525,
			Username: "user",
			Password: "pass",
			From:     "no-reply@example.com",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
	}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "user", settings.Username)
	require.Equal(t, "pass", settings.Password)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.True(t, settings.UseTLS)
	require.Equal(t, 10*time.Second, settings.Timeout)
}

func TestStorageConfigOpensLocalStore(t *testing.T) {
	cfg := StorageConfig{Dir: filepath.Join(t.TempDir(), "uploads"), PublicPrefix: "/uploads"}
	store, err := cfg.OpenBlobStore(context.Background())
	require.NoError(t, err)
	require.Equal(t, "local", store.Driver())

	_, err = StorageConfig{Driver: "ftp"}.OpenBlobStore(context.Background())
	require.Error(t, err)
}
