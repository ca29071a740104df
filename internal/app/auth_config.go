package app

import (
	"strings"
	"time"

	"github.com/charlesng35/autodetail/internal/auth"
	"github.com/charlesng35/autodetail/internal/database"
)

const (
	defaultVerificationTTL = 10 * time.Minute
	defaultResetTTL        = 30 * time.Minute
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// VerificationCodeTTL returns how long an emailed verification code stays valid.
func (c AuthConfig) VerificationCodeTTL() time.Duration {
	if c.VerificationTTL <= 0 {
		return defaultVerificationTTL
	}
	return c.VerificationTTL
}

// ResetTokenTTL returns how long a password reset token stays valid.
func (c AuthConfig) ResetTokenTTL() time.Duration {
	if c.ResetTTL <= 0 {
		return defaultResetTTL
	}
	return c.ResetTTL
}

// SeedOptions converts the bootstrap admin settings into database seed options.
// No options are returned when no bootstrap email is configured.
func (c AuthConfig) SeedOptions() []database.SeedOption {
	if strings.TrimSpace(c.BootstrapAdmin.Email) == "" {
		return nil
	}
	return []database.SeedOption{
		database.WithBootstrapAdmin(database.BootstrapAdmin{
			Name:     c.BootstrapAdmin.Name,
			Email:    c.BootstrapAdmin.Email,
			Password: c.BootstrapAdmin.Password,
		}),
	}
}
