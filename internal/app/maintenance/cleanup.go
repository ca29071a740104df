package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/autodetail/internal/services"
	"github.com/charlesng35/autodetail/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultPendingRetention   = 7 * 24 * time.Hour
	defaultTokenSpec          = "@hourly"
	defaultAuditSpec          = "@daily"
)

// ExpiringStore is a cache backend that can drop entries past their TTL.
type ExpiringStore interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Stats captures the number of rows removed by a cleanup run.
type Stats struct {
	ResetTokens   int64
	Registrations int64
	CacheEntries  int64
	AuditLogs     int64
}

// Cleaner coordinates background maintenance tasks such as purging expired
// reset tokens, stale registrations, expired cache rows and old audit logs.
type Cleaner struct {
	recovery   *services.RecoveryService
	moderation *services.ModerationService
	audit      *services.AuditService
	cache      ExpiringStore
	cron       *cron.Cron
	log        *zap.Logger
	retention  int
	pendingAge time.Duration

	tokenSchedule string
	auditSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithCache enables purging of an expiring cache store.
func WithCache(store ExpiringStore) Option {
	return func(cleaner *Cleaner) {
		cleaner.cache = store
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithPendingRetention sets how long an expired registration is kept before removal.
func WithPendingRetention(age time.Duration) Option {
	return func(cleaner *Cleaner) {
		if age > 0 {
			cleaner.pendingAge = age
		}
	}
}

// WithTokenSchedule overrides the cron specification for token, registration and cache cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding cleanup job being skipped.
func NewCleaner(recovery *services.RecoveryService, moderation *services.ModerationService, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		recovery:      recovery,
		moderation:    moderation,
		audit:         audit,
		retention:     defaultAuditRetentionDays,
		pendingAge:    defaultPendingRetention,
		tokenSchedule: defaultTokenSpec,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.recovery != nil || c.moderation != nil || c.cache != nil || c.audit != nil
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
		stats, err := c.purgeShortLived(context.Background())
		if err != nil {
			c.log.Warn("token cleanup failed", zap.Error(err))
			return
		}
		c.log.Debug("token cleanup finished",
			zap.Int64("reset_tokens", stats.ResetTokens),
			zap.Int64("registrations", stats.Registrations),
			zap.Int64("cache_entries", stats.CacheEntries),
		)
	}); err != nil {
		return err
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used by the
// admin CLI and in tests. Failures in one routine do not stop the others.
func (c *Cleaner) RunOnce(ctx context.Context) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stats, errs := c.purgeShortLived(ctx)

	if c.audit != nil && c.retention > 0 {
		removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		stats.AuditLogs = removed
	}

	return stats, errs
}

func (c *Cleaner) purgeShortLived(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		errs  error
	)

	if c.recovery != nil {
		removed, err := c.recovery.PurgeExpired(ctx)
		errs = multierr.Append(errs, err)
		stats.ResetTokens = removed
	}

	if c.moderation != nil {
		removed, err := c.moderation.PurgeStaleRegistrations(ctx, c.pendingAge)
		errs = multierr.Append(errs, err)
		stats.Registrations = removed
	}

	if c.cache != nil {
		removed, err := c.cache.PurgeExpired(ctx)
		errs = multierr.Append(errs, err)
		stats.CacheEntries = removed
	}

	return stats, errs
}
