package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/internal/storage"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

// Profile is an account together with the listings it owns.
type Profile struct {
	Account  *models.Account
	Listings []models.Listing
}

// UpdateProfileInput carries the self-editable account fields.
type UpdateProfileInput struct {
	Name  string
	Phone *string
}

// ProfileService lets an account manage its own details and avatar.
type ProfileService struct {
	db     *gorm.DB
	images *storage.Images
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, images *storage.Images) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	if images == nil {
		return nil, errors.New("profile service: image store is required")
	}
	return &ProfileService{db: db, images: images}, nil
}

// Get returns account with its listings, newest first.
func (s *ProfileService) Get(ctx context.Context, account *models.Account) (*Profile, error) {
	ctx = ensureContext(ctx)
	if account == nil {
		return nil, apperrors.NewNotFound("User")
	}

	var listings []models.Listing
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", account.ID).
		Order("created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("profile service: list listings: %w", err)
	}
	return &Profile{Account: account, Listings: listings}, nil
}

// Update replaces the display name and phone of account. A blank phone clears it.
func (s *ProfileService) Update(ctx context.Context, account *models.Account, input UpdateProfileInput) (*models.Account, error) {
	ctx = ensureContext(ctx)
	if account == nil {
		return nil, apperrors.NewNotFound("User")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidation("Name is required")
	}
	phone := trimmedOrNil(input.Phone)

	if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]any{
		"name":  name,
		"phone": phone,
	}).Error; err != nil {
		return nil, fmt.Errorf("profile service: update: %w", err)
	}

	updated := *account
	updated.DisplayName = name
	updated.Phone = phone
	return &updated, nil
}

// SetImage stores a new avatar and removes the previous one.
func (s *ProfileService) SetImage(ctx context.Context, account *models.Account, data []byte) (string, error) {
	ctx = ensureContext(ctx)
	if account == nil {
		return "", apperrors.NewNotFound("User")
	}
	if len(data) == 0 {
		return "", apperrors.NewValidation("Image is required")
	}

	url, err := s.images.Save(ctx, data, storage.ProfileVariant)
	if err != nil {
		return "", apperrors.Wrap(err, "Failed to store image")
	}

	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", account.ID).
		Update("profile_image_url", url).Error; err != nil {
		s.images.DeleteBestEffort(ctx, url)
		return "", fmt.Errorf("profile service: set image: %w", err)
	}

	if previous := stringValue(account.ProfileImageURL); previous != "" && previous != url {
		s.images.DeleteBestEffort(ctx, previous)
	}
	return url, nil
}

// RemoveImage clears the avatar of account and deletes its blob.
func (s *ProfileService) RemoveImage(ctx context.Context, account *models.Account) error {
	ctx = ensureContext(ctx)
	if account == nil {
		return apperrors.NewNotFound("User")
	}

	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", account.ID).
		Update("profile_image_url", nil).Error; err != nil {
		return fmt.Errorf("profile service: remove image: %w", err)
	}

	if current := stringValue(account.ProfileImageURL); current != "" {
		s.images.DeleteBestEffort(ctx, current)
	}
	return nil
}
