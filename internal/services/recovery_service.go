package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/notify"
	"github.com/charlesng35/autodetail/pkg/crypto"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

const (
	defaultResetTTL        = 30 * time.Minute
	defaultResetTokenBytes = 24
)

// RecoveryOption customises the RecoveryService.
type RecoveryOption func(*RecoveryService)

// WithRecoveryClock injects a custom time source.
func WithRecoveryClock(clock func() time.Time) RecoveryOption {
	return func(s *RecoveryService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithResetTTL overrides the lifetime of reset tokens.
func WithResetTTL(ttl time.Duration) RecoveryOption {
	return func(s *RecoveryService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFrontendURL sets the base URL used to build reset links.
func WithFrontendURL(url string) RecoveryOption {
	return func(s *RecoveryService) {
		s.frontendURL = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// RecoveryService issues and redeems single-use password reset tokens.
type RecoveryService struct {
	db          *gorm.DB
	notifier    notify.Notifier
	audit       *AuditService
	frontendURL string
	ttl         time.Duration
	now         func() time.Time
}

// NewRecoveryService constructs a RecoveryService.
func NewRecoveryService(db *gorm.DB, notifier notify.Notifier, audit *AuditService, opts ...RecoveryOption) (*RecoveryService, error) {
	if db == nil {
		return nil, errors.New("recovery service: db is required")
	}
	svc := &RecoveryService{
		db:       db,
		notifier: notifier,
		audit:    audit,
		ttl:      defaultResetTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RequestReset issues a reset token when email belongs to an account. The call
// succeeds for unknown addresses so callers cannot probe for accounts. Any
// token previously issued for the address stops working.
func (s *RecoveryService) RequestReset(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	email = models.NormalizeEmail(email)
	if email == "" {
		return apperrors.NewValidation("Email is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("recovery service: check account: %w", err)
	}
	if count == 0 {
		return nil
	}

	token, err := crypto.GenerateHexToken(defaultResetTokenBytes)
	if err != nil {
		return fmt.Errorf("recovery service: generate token: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			Email:     email,
			Token:     token,
			ExpiresAt: s.now().Add(s.ttl),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("recovery service: store token: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Email:    email,
		Action:   "auth.password_reset_requested",
		Resource: "password_resets",
		Result:   "success",
	})

	link := notify.ResetLink(s.frontendURL, email, token)
	deliverBestEffort(ctx, s.notifier, "password_reset", notify.PasswordResetMessage(email, link, s.ttl))
	return nil
}

// ResetPassword redeems token and replaces the account password.
func (s *RecoveryService) ResetPassword(ctx context.Context, email, token, password string) error {
	ctx = ensureContext(ctx)

	email = models.NormalizeEmail(email)
	token = strings.TrimSpace(token)
	if email == "" || token == "" || password == "" {
		return apperrors.NewValidation("Email, token and password are required")
	}

	var record models.PasswordResetToken
	if err := s.db.WithContext(ctx).Where("email = ? AND token = ?", email, token).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("recovery service: load token: %w", err)
	}

	if s.now().After(record.ExpiresAt) {
		if err := s.db.WithContext(ctx).Delete(&models.PasswordResetToken{}, "id = ?", record.ID).Error; err != nil {
			return fmt.Errorf("recovery service: delete expired token: %w", err)
		}
		return ErrInvalidResetToken
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("recovery service: hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("email = ?", email).Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PasswordResetToken{}, "id = ?", record.ID).Error
	})
	if err != nil {
		return fmt.Errorf("recovery service: reset password: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Email:    email,
		Action:   "auth.password_reset",
		Resource: "users",
		Result:   "success",
	})
	return nil
}

// PurgeExpired removes reset tokens whose expiry has passed.
func (s *RecoveryService) PurgeExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("recovery service: purge expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
