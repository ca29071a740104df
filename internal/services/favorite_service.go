package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/autodetail/internal/models"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

// FavoriteService manages the listings an account bookmarked.
type FavoriteService struct {
	db *gorm.DB
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(db *gorm.DB) (*FavoriteService, error) {
	if db == nil {
		return nil, errors.New("favorite service: db is required")
	}
	return &FavoriteService{db: db}, nil
}

// List returns the listings bookmarked by account, most recently added first.
func (s *FavoriteService) List(ctx context.Context, account *models.Account) ([]models.Listing, error) {
	ctx = ensureContext(ctx)
	if account == nil {
		return nil, apperrors.NewNotFound("User")
	}

	var listings []models.Listing
	if err := s.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.post_id = posts.id").
		Where("favorites.user_id = ?", account.ID).
		Order("favorites.created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("favorite service: list: %w", err)
	}
	return listings, nil
}

// Add bookmarks a listing. Adding an existing favorite succeeds without change.
func (s *FavoriteService) Add(ctx context.Context, account *models.Account, listingID string) error {
	ctx = ensureContext(ctx)
	if account == nil {
		return apperrors.NewNotFound("User")
	}
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return apperrors.NewValidation("post_id is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
		return fmt.Errorf("favorite service: check listing: %w", err)
	}
	if count == 0 {
		return apperrors.NewNotFound("Post")
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{AccountID: account.ID, ListingID: listingID}).Error; err != nil {
		return fmt.Errorf("favorite service: add: %w", err)
	}
	return nil
}

// Remove deletes a bookmark. Removing a missing favorite is not an error.
func (s *FavoriteService) Remove(ctx context.Context, account *models.Account, listingID string) error {
	ctx = ensureContext(ctx)
	if account == nil {
		return apperrors.NewNotFound("User")
	}
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return apperrors.NewValidation("post_id is required")
	}

	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", account.ID, listingID).
		Delete(&models.Favorite{}).Error; err != nil {
		return fmt.Errorf("favorite service: remove: %w", err)
	}
	return nil
}
