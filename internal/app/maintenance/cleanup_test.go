package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/cache"
	testutil "github.com/charlesng35/autodetail/internal/database/testutil"
	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/services"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := fixedClock{current: time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	auditSvc, err := services.NewAuditService(db, services.WithAuditClock(clock.Now))
	require.NoError(t, err)
	recovery, err := services.NewRecoveryService(db, nil, auditSvc, services.WithRecoveryClock(clock.Now))
	require.NoError(t, err)
	moderation, err := services.NewModerationService(db, auditSvc, services.WithModerationClock(clock.Now))
	require.NoError(t, err)
	store := cache.NewDatabaseStore(db, cache.WithDatabaseClock(clock.Now))

	require.NoError(t, db.Create(&models.PasswordResetToken{
		Email:     "expired@example.com",
		Token:     "reset-expired",
		ExpiresAt: clock.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.PasswordResetToken{
		Email:     "active@example.com",
		Token:     "reset-active",
		ExpiresAt: clock.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, db.Create(&models.PendingRegistration{
		Name:               "Stale",
		Email:              "stale@example.com",
		PasswordHash:       "hash",
		VerificationCode:   "123456",
		VerificationExpiry: clock.Now().Add(-8 * 24 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.PendingRegistration{
		Name:               "Recent",
		Email:              "recent@example.com",
		PasswordHash:       "hash",
		VerificationCode:   "654321",
		VerificationExpiry: clock.Now().Add(-time.Hour),
	}).Error)

	require.NoError(t, store.Set(ctx, "expired", []byte("x"), time.Minute))
	require.NoError(t, store.Set(ctx, "fresh", []byte("y"), 3*time.Hour))
	clock.current = clock.current.Add(time.Hour)

	require.NoError(t, auditSvc.Log(ctx, services.AuditEntry{Action: "test.action", Result: "success", Email: "tester@example.com"}))
	require.NoError(t, db.Model(&models.AuditLog{}).Where("1 = 1").
		Update("created_at", clock.Now().AddDate(0, 0, -10)).Error)

	c := NewCleaner(recovery, moderation, auditSvc,
		WithCache(store),
		WithAuditRetentionDays(7),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	stats, err := c.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{ResetTokens: 1, Registrations: 1, CacheEntries: 1, AuditLogs: 1}, stats)

	var count int64
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.PendingRegistration{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Zero(t, count)

	_, ok, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCleanerCollectsErrors(t *testing.T) {
	failing := &failingStore{err: errors.New("cache unavailable")}
	c := NewCleaner(nil, nil, nil, WithCache(failing))

	_, err := c.RunOnce(context.Background())
	require.ErrorContains(t, err, "cache unavailable")
	require.Equal(t, 1, failing.calls)
}

func TestCleanerStartWithoutJobs(t *testing.T) {
	c := NewCleaner(nil, nil, nil)
	require.NoError(t, c.Start())
	<-c.Stop().Done()
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	c := NewCleaner(nil, nil, nil, WithCache(&failingStore{}), WithTokenSchedule("not a schedule"))
	require.Error(t, c.Start())
}

type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) PurgeExpired(context.Context) (int64, error) {
	s.calls++
	return 0, s.err
}

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}
