package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/auth"
	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/notify"
	"github.com/charlesng35/autodetail/pkg/crypto"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/metrics"
)

const (
	defaultVerificationTTL = 10 * time.Minute
	verificationCodeDigits = 6
)

// TokenIssuer issues access tokens for authenticated accounts.
type TokenIssuer interface {
	GenerateAccessToken(input auth.AccessTokenInput) (string, error)
}

// RegisterInput describes a sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

// VerifyResult reports the outcome of a verification attempt.
type VerifyResult struct {
	Account         *models.Account
	AlreadyVerified bool
}

// LoginResult carries the authenticated account and its access token.
type LoginResult struct {
	Account     *models.Account
	AccessToken string
	ExpiresIn   time.Duration
}

// IdentityOption customises the IdentityService.
type IdentityOption func(*IdentityService)

// WithIdentityClock injects a custom time source.
func WithIdentityClock(clock func() time.Time) IdentityOption {
	return func(s *IdentityService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithVerificationTTL overrides the lifetime of verification codes.
func WithVerificationTTL(ttl time.Duration) IdentityOption {
	return func(s *IdentityService) {
		if ttl > 0 {
			s.verificationTTL = ttl
		}
	}
}

// WithCodeGenerator replaces the verification code generator.
func WithCodeGenerator(gen func() (string, error)) IdentityOption {
	return func(s *IdentityService) {
		if gen != nil {
			s.generateCode = gen
		}
	}
}

// WithAccessTokenTTL records the lifetime reported alongside issued tokens.
func WithAccessTokenTTL(ttl time.Duration) IdentityOption {
	return func(s *IdentityService) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// IdentityService owns the registration, verification and login lifecycle.
type IdentityService struct {
	db              *gorm.DB
	notifier        notify.Notifier
	issuer          TokenIssuer
	audit           *AuditService
	verificationTTL time.Duration
	tokenTTL        time.Duration
	generateCode    func() (string, error)
	now             func() time.Time
}

// NewIdentityService constructs an IdentityService. notifier and audit may be nil.
func NewIdentityService(db *gorm.DB, notifier notify.Notifier, issuer TokenIssuer, audit *AuditService, opts ...IdentityOption) (*IdentityService, error) {
	if db == nil {
		return nil, errors.New("identity service: db is required")
	}
	if issuer == nil {
		return nil, errors.New("identity service: token issuer is required")
	}

	svc := &IdentityService{
		db:              db,
		notifier:        notifier,
		issuer:          issuer,
		audit:           audit,
		verificationTTL: defaultVerificationTTL,
		tokenTTL:        auth.DefaultAccessTokenTTL,
		generateCode: func() (string, error) {
			return crypto.GenerateNumericCode(verificationCodeDigits)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// VerificationTTL returns the configured lifetime of verification codes.
func (s *IdentityService) VerificationTTL() time.Duration {
	return s.verificationTTL
}

// Register stores a pending registration and sends its verification code.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*models.PendingRegistration, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := models.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidation("Name, email and password are required")
	}

	var accounts int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&accounts).Error; err != nil {
		return nil, fmt.Errorf("identity service: check account: %w", err)
	}
	if accounts > 0 {
		return nil, apperrors.NewConflict("User already exists")
	}

	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.PendingRegistration{}).Where("email = ?", email).Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("identity service: check pending: %w", err)
	}
	if pending > 0 {
		return nil, apperrors.NewConflict("Verification already sent, please verify your email")
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity service: hash password: %w", err)
	}
	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("identity service: generate code: %w", err)
	}

	record := &models.PendingRegistration{
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		VerificationCode:   code,
		VerificationExpiry: s.now().Add(s.verificationTTL),
		Phone:              trimmedOrNil(input.Phone),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("Verification already sent, please verify your email")
		}
		return nil, fmt.Errorf("identity service: create pending registration: %w", err)
	}

	metrics.Registrations.WithLabelValues("started").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		Email:    email,
		Action:   "auth.register",
		Resource: "pending_users",
		Result:   "success",
	})

	deliverBestEffort(ctx, s.notifier, "verification", notify.VerificationMessage(email, code, s.verificationTTL))
	return record, nil
}

// Verify promotes a pending registration into an account when code matches.
// Verifying an address that already belongs to an account succeeds without
// creating a second account.
func (s *IdentityService) Verify(ctx context.Context, email, code string) (*VerifyResult, error) {
	ctx = ensureContext(ctx)

	email = models.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, apperrors.NewValidation("Email and code are required")
	}

	var pending models.PendingRegistration
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing, lookupErr := s.findAccount(ctx, s.db, email)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return &VerifyResult{Account: existing, AlreadyVerified: true}, nil
		}
		return nil, apperrors.NewNotFound("Verification")
	}
	if err != nil {
		return nil, fmt.Errorf("identity service: load pending registration: %w", err)
	}

	if s.now().After(pending.VerificationExpiry) {
		metrics.Registrations.WithLabelValues("expired").Inc()
		return nil, apperrors.NewExpired("Verification code expired")
	}
	if pending.VerificationCode != code {
		metrics.Registrations.WithLabelValues("mismatch").Inc()
		return nil, apperrors.NewMismatch("Invalid verification code")
	}

	result := &VerifyResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findAccount(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			result.Account = existing
			result.AlreadyVerified = true
			return tx.Delete(&models.PendingRegistration{}, "id = ?", pending.ID).Error
		}

		account := &models.Account{
			DisplayName:  pending.Name,
			Email:        pending.Email,
			PasswordHash: pending.PasswordHash,
			Role:         models.RoleUser,
			Phone:        pending.Phone,
		}
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.PendingRegistration{}, "id = ?", pending.ID).Error; err != nil {
			return err
		}
		result.Account = account
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			existing, lookupErr := s.findAccount(ctx, s.db, email)
			if lookupErr == nil && existing != nil {
				return &VerifyResult{Account: existing, AlreadyVerified: true}, nil
			}
		}
		return nil, fmt.Errorf("identity service: promote registration: %w", err)
	}

	if !result.AlreadyVerified {
		metrics.Registrations.WithLabelValues("verified").Inc()
		recordAudit(s.audit, ctx, AuditEntry{
			AccountID: accountIDPtr(result.Account.ID),
			Email:     email,
			Action:    "auth.verify",
			Resource:  "users",
			Result:    "success",
		})
	}
	return result, nil
}

// Resend regenerates the verification code of a pending registration and re-sends it.
func (s *IdentityService) Resend(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	email = models.NormalizeEmail(email)
	if email == "" {
		return apperrors.NewValidation("Email is required")
	}

	var pending models.PendingRegistration
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("Verification")
		}
		return fmt.Errorf("identity service: load pending registration: %w", err)
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("identity service: generate code: %w", err)
	}
	expiry := s.now().Add(s.verificationTTL)

	if err := s.db.WithContext(ctx).Model(&models.PendingRegistration{}).
		Where("id = ?", pending.ID).
		Updates(map[string]any{
			"verification_code":   code,
			"verification_expiry": expiry,
		}).Error; err != nil {
		return fmt.Errorf("identity service: refresh code: %w", err)
	}

	metrics.Registrations.WithLabelValues("resent").Inc()
	deliverBestEffort(ctx, s.notifier, "verification", notify.VerificationMessage(email, code, s.verificationTTL))
	return nil
}

// Authenticate checks credentials and issues an access token.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx = ensureContext(ctx)

	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidation("Email and password are required")
	}

	account, err := s.findAccount(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if account == nil || !crypto.VerifyPassword(account.PasswordHash, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		var accountID *string
		if account != nil {
			accountID = accountIDPtr(account.ID)
		}
		recordAudit(s.audit, ctx, AuditEntry{
			AccountID: accountID,
			Email:     email,
			Action:    "auth.login",
			Resource:  "users",
			Result:    "failure",
		})
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateAccessToken(auth.AccessTokenInput{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("identity service: issue token: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: accountIDPtr(account.ID),
		Email:     email,
		Action:    "auth.login",
		Resource:  "users",
		Result:    "success",
	})

	return &LoginResult{Account: account, AccessToken: token, ExpiresIn: s.tokenTTL}, nil
}

func (s *IdentityService) findAccount(ctx context.Context, db *gorm.DB, email string) (*models.Account, error) {
	var account models.Account
	err := db.WithContext(ctx).Where("email = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity service: load account: %w", err)
	}
	return &account, nil
}
