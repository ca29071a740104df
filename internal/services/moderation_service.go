package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/models"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/metrics"
)

// CarSubmission is a proposed catalog entry.
type CarSubmission struct {
	Brand       string
	Model       string
	Year        *int
	Color       string
	RequestedBy string
}

// ModerationOption customises the ModerationService.
type ModerationOption func(*ModerationService)

// WithModerationClock injects a custom time source.
func WithModerationClock(clock func() time.Time) ModerationOption {
	return func(s *ModerationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ModerationService moves car submissions and pending registrations through
// admin review.
type ModerationService struct {
	db    *gorm.DB
	audit *AuditService
	now   func() time.Time
}

// NewModerationService constructs a ModerationService.
func NewModerationService(db *gorm.DB, audit *AuditService, opts ...ModerationOption) (*ModerationService, error) {
	if db == nil {
		return nil, errors.New("moderation service: db is required")
	}
	svc := &ModerationService{db: db, audit: audit, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SubmitCar queues a catalog submission. Submissions are stored as given;
// duplicates of queued or approved cars are accepted.
func (s *ModerationService) SubmitCar(ctx context.Context, input CarSubmission) (*models.PendingCar, error) {
	ctx = ensureContext(ctx)

	brand := strings.TrimSpace(input.Brand)
	model := strings.TrimSpace(input.Model)
	color := strings.TrimSpace(input.Color)
	if brand == "" || model == "" || color == "" || input.Year == nil {
		return nil, apperrors.NewValidation("Brand, model, year and color are required")
	}

	record := &models.PendingCar{
		Brand: brand,
		Model: model,
		Year:  *input.Year,
		Color: color,
	}
	if requester := models.NormalizeEmail(input.RequestedBy); requester != "" {
		record.RequestedByEmail = &requester
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("moderation service: submit car: %w", err)
	}
	metrics.ModerationDecisions.WithLabelValues("cars", "submitted").Inc()
	return record, nil
}

// ListPendingCars returns queued submissions, newest first.
func (s *ModerationService) ListPendingCars(ctx context.Context) ([]models.PendingCar, error) {
	ctx = ensureContext(ctx)

	var rows []models.PendingCar
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("moderation service: list pending cars: %w", err)
	}
	return rows, nil
}

// ApproveCar copies a submission into the catalog and removes it from the queue
// in one transaction. Approving the same submission twice yields NotFound.
func (s *ModerationService) ApproveCar(ctx context.Context, actor *models.Account, id string) (*models.Car, error) {
	ctx = ensureContext(ctx)

	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var car *models.Car
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending models.PendingCar
		if err := tx.Where("id = ?", id).Take(&pending).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("Pending car")
			}
			return err
		}

		deleted := tx.Delete(&models.PendingCar{}, "id = ?", pending.ID)
		if deleted.Error != nil {
			return deleted.Error
		}
		if deleted.RowsAffected == 0 {
			return apperrors.NewNotFound("Pending car")
		}

		car = &models.Car{
			Brand: pending.Brand,
			Model: pending.Model,
			Year:  pending.Year,
			Color: pending.Color,
		}
		return tx.Create(car).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("moderation service: approve car: %w", err)
	}

	metrics.ModerationDecisions.WithLabelValues("cars", "approved").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: accountIDPtr(actor.ID),
		Email:     actor.Email,
		Action:    "moderation.car.approve",
		Resource:  "pending_cars",
		Result:    "success",
		Metadata:  map[string]any{"pending_id": id, "car_id": car.ID},
	})
	return car, nil
}

// RejectCar discards a queued submission.
func (s *ModerationService) RejectCar(ctx context.Context, actor *models.Account, id string) error {
	ctx = ensureContext(ctx)

	if err := RequireAdmin(actor); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.PendingCar{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("moderation service: reject car: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("Pending car")
	}

	metrics.ModerationDecisions.WithLabelValues("cars", "rejected").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: accountIDPtr(actor.ID),
		Email:     actor.Email,
		Action:    "moderation.car.reject",
		Resource:  "pending_cars",
		Result:    "success",
		Metadata:  map[string]any{"pending_id": id},
	})
	return nil
}

// ListPendingUsers returns registrations awaiting verification, newest first.
func (s *ModerationService) ListPendingUsers(ctx context.Context) ([]models.PendingRegistration, error) {
	ctx = ensureContext(ctx)

	var rows []models.PendingRegistration
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("moderation service: list pending users: %w", err)
	}
	return rows, nil
}

// DeletePendingUser removes a pending registration.
func (s *ModerationService) DeletePendingUser(ctx context.Context, actor *models.Account, id string) error {
	ctx = ensureContext(ctx)

	if err := RequireAdmin(actor); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.PendingRegistration{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("moderation service: delete pending user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("Pending user")
	}

	metrics.ModerationDecisions.WithLabelValues("users", "deleted").Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: accountIDPtr(actor.ID),
		Email:     actor.Email,
		Action:    "moderation.pending_user.delete",
		Resource:  "pending_users",
		Result:    "success",
		Metadata:  map[string]any{"pending_id": id},
	})
	return nil
}

// PurgeStaleRegistrations removes pending registrations whose code expired
// more than olderThan ago.
func (s *ModerationService) PurgeStaleRegistrations(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	cutoff := s.now().Add(-olderThan)
	result := s.db.WithContext(ctx).Where("verification_expiry < ?", cutoff).Delete(&models.PendingRegistration{})
	if result.Error != nil {
		return 0, fmt.Errorf("moderation service: purge stale registrations: %w", result.Error)
	}
	return result.RowsAffected, nil
}
