package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/notify"
	"github.com/charlesng35/autodetail/pkg/crypto"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

func newIdentityTestService(t *testing.T, notifier *recordingNotifier, clock *fixedClock) (*IdentityService, *AuditService) {
	t.Helper()
	db := openServiceTestDB(t)
	audit, err := NewAuditService(db)
	require.NoError(t, err)

	var n notify.Notifier
	if notifier != nil {
		n = notifier
	}

	codes := []string{"111111", "222222", "333333"}
	next := 0
	svc, err := NewIdentityService(db, n, fakeIssuer{}, audit,
		WithIdentityClock(clock.Now),
		WithCodeGenerator(func() (string, error) {
			code := codes[next%len(codes)]
			next++
			return code, nil
		}),
	)
	require.NoError(t, err)
	return svc, audit
}

func TestIdentityRegisterVerifyFlow(t *testing.T) {
	notifier := &recordingNotifier{configured: true}
	clock := newFixedClock()
	svc, _ := newIdentityTestService(t, notifier, clock)
	ctx := context.Background()

	pending, err := svc.Register(ctx, RegisterInput{
		Name:     "  Ayla  ",
		Email:    " Ayla@Example.com ",
		Password: "Password123!",
		Phone:    strPtr(" +994501112233 "),
	})
	require.NoError(t, err)
	require.Equal(t, "ayla@example.com", pending.Email)
	require.Equal(t, "Ayla", pending.Name)
	require.True(t, clock.Now().Add(10*time.Minute).Equal(pending.VerificationExpiry))
	require.True(t, crypto.VerifyPassword(pending.PasswordHash, "Password123!"))

	sent := notifier.messages()
	require.Len(t, sent, 1)
	require.Equal(t, "ayla@example.com", sent[0].To)
	require.Contains(t, sent[0].Body, "111111")

	_, err = svc.Verify(ctx, "ayla@example.com", "999999")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeMismatch, apperrors.KindOf(err))

	result, err := svc.Verify(ctx, "AYLA@example.com", " 111111 ")
	require.NoError(t, err)
	require.False(t, result.AlreadyVerified)
	require.Equal(t, models.RoleUser, result.Account.Role)
	require.Equal(t, "Ayla", result.Account.DisplayName)
	require.NotNil(t, result.Account.Phone)
	require.Equal(t, "+994501112233", *result.Account.Phone)

	var pendingCount, accountCount int64
	require.NoError(t, svc.db.Model(&models.PendingRegistration{}).Count(&pendingCount).Error)
	require.NoError(t, svc.db.Model(&models.Account{}).Count(&accountCount).Error)
	require.Zero(t, pendingCount)
	require.Equal(t, int64(1), accountCount)

	again, err := svc.Verify(ctx, "ayla@example.com", "111111")
	require.NoError(t, err)
	require.True(t, again.AlreadyVerified)
	require.NoError(t, svc.db.Model(&models.Account{}).Count(&accountCount).Error)
	require.Equal(t, int64(1), accountCount)
}

func TestIdentityRegisterConflicts(t *testing.T) {
	svc, _ := newIdentityTestService(t, &recordingNotifier{configured: true}, newFixedClock())
	ctx := context.Background()

	createTestAccount(t, svc.db, "taken@example.com", models.RoleUser)
	_, err := svc.Register(ctx, RegisterInput{Name: "Taken", Email: "TAKEN@example.com", Password: "secret"})
	require.Equal(t, apperrors.CodeConflict, apperrors.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Name: "New", Email: "new@example.com", Password: "secret"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "New", Email: "new@example.com", Password: "secret"})
	require.Equal(t, apperrors.CodeConflict, apperrors.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Email: "x@example.com", Password: "secret"})
	require.Equal(t, apperrors.CodeValidation, apperrors.KindOf(err))
}

func TestIdentityVerifyExpiredEvenWithCorrectCode(t *testing.T) {
	clock := newFixedClock()
	svc, _ := newIdentityTestService(t, &recordingNotifier{configured: true}, clock)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Late", Email: "late@example.com", Password: "secret"})
	require.NoError(t, err)

	clock.Advance(10*time.Minute + time.Second)
	_, err = svc.Verify(ctx, "late@example.com", "111111")
	require.Equal(t, apperrors.CodeExpired, apperrors.KindOf(err))

	var pendingCount int64
	require.NoError(t, svc.db.Model(&models.PendingRegistration{}).Count(&pendingCount).Error)
	require.Equal(t, int64(1), pendingCount, "expired registrations stay until the next event")
}

func TestIdentityVerifyUnknownEmail(t *testing.T) {
	svc, _ := newIdentityTestService(t, nil, newFixedClock())
	_, err := svc.Verify(context.Background(), "ghost@example.com", "123456")
	require.Equal(t, apperrors.CodeNotFound, apperrors.KindOf(err))
}

func TestIdentityVerifyRemovesStalePendingForExistingAccount(t *testing.T) {
	svc, _ := newIdentityTestService(t, nil, newFixedClock())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Dup", Email: "dup@example.com", Password: "secret"})
	require.NoError(t, err)
	createTestAccount(t, svc.db, "dup@example.com", models.RoleUser)

	result, err := svc.Verify(ctx, "dup@example.com", "111111")
	require.NoError(t, err)
	require.True(t, result.AlreadyVerified)

	var pendingCount, accountCount int64
	require.NoError(t, svc.db.Model(&models.PendingRegistration{}).Count(&pendingCount).Error)
	require.NoError(t, svc.db.Model(&models.Account{}).Where("email = ?", "dup@example.com").Count(&accountCount).Error)
	require.Zero(t, pendingCount)
	require.Equal(t, int64(1), accountCount)
}

func TestIdentityResendRefreshesCodeAndExpiry(t *testing.T) {
	notifier := &recordingNotifier{configured: true}
	clock := newFixedClock()
	svc, _ := newIdentityTestService(t, notifier, clock)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Re", Email: "re@example.com", Password: "secret"})
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	require.NoError(t, svc.Resend(ctx, "re@example.com"))

	var pending models.PendingRegistration
	require.NoError(t, svc.db.Where("email = ?", "re@example.com").Take(&pending).Error)
	require.Equal(t, "222222", pending.VerificationCode)
	require.True(t, clock.Now().Add(10*time.Minute).Equal(pending.VerificationExpiry))
	require.Len(t, notifier.messages(), 2)

	_, err = svc.Verify(ctx, "re@example.com", "111111")
	require.Equal(t, apperrors.CodeMismatch, apperrors.KindOf(err), "old code no longer valid")
	_, err = svc.Verify(ctx, "re@example.com", "222222")
	require.NoError(t, err)

	require.Equal(t, apperrors.CodeNotFound, apperrors.KindOf(svc.Resend(ctx, "nobody@example.com")))
}

func TestIdentityNotifierFailuresDoNotFailRegistration(t *testing.T) {
	failing := &recordingNotifier{configured: true, err: errors.New("smtp down")}
	svc, _ := newIdentityTestService(t, failing, newFixedClock())
	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	unconfigured := &recordingNotifier{}
	svc2, _ := newIdentityTestService(t, unconfigured, newFixedClock())
	_, err = svc2.Register(context.Background(), RegisterInput{Name: "B", Email: "b@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Empty(t, unconfigured.messages())
}

func TestIdentityAuthenticate(t *testing.T) {
	svc, audit := newIdentityTestService(t, nil, newFixedClock())
	ctx := context.Background()
	account := createTestAccount(t, svc.db, "login@example.com", models.RoleUser)

	result, err := svc.Authenticate(ctx, " LOGIN@example.com", "Password123!")
	require.NoError(t, err)
	require.Equal(t, account.ID, result.Account.ID)
	require.Equal(t, "token-for-login@example.com", result.AccessToken)

	_, err = svc.Authenticate(ctx, "login@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "missing@example.com", "Password123!")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	logs, total, err := audit.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "auth.login"}})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, logs, 3)

	_, failures, err := audit.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "auth.login", Result: "failure"}})
	require.NoError(t, err)
	require.Equal(t, int64(2), failures)
}

func TestIdentityRegisterConcurrentInsertIsConflict(t *testing.T) {
	db := openServiceTestDB(t)
	ctx := context.Background()

	// The competing registration lands after the existence checks passed and
	// before this request inserts its own row.
	svc, err := NewIdentityService(db, nil, fakeIssuer{}, nil,
		WithCodeGenerator(func() (string, error) {
			err := db.Create(&models.PendingRegistration{
				Name:               "Racer",
				Email:              "race@example.com",
				PasswordHash:       "hash",
				VerificationCode:   "000000",
				VerificationExpiry: time.Now().Add(time.Minute),
			}).Error
			return "123456", err
		}),
	)
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Late", Email: "race@example.com", Password: "secret"})
	require.Equal(t, apperrors.CodeConflict, apperrors.KindOf(err))

	var pending []models.PendingRegistration
	require.NoError(t, db.Where("email = ?", "race@example.com").Find(&pending).Error)
	require.Len(t, pending, 1)
	require.Equal(t, "Racer", pending[0].Name)
}
