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

// AdminUpdateAccountInput lists the fields an administrator may change. Nil or
// blank fields keep their stored value.
type AdminUpdateAccountInput struct {
	Name  *string
	Phone *string
	Role  *string
}

// AccountService provides administrator management of verified accounts.
type AccountService struct {
	db     *gorm.DB
	images *storage.Images
	audit  *AuditService
}

// NewAccountService constructs an AccountService. images may be nil, in which
// case blobs of deleted accounts are left in place.
func NewAccountService(db *gorm.DB, images *storage.Images, audit *AuditService) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	return &AccountService{db: db, images: images, audit: audit}, nil
}

// List returns every account, newest first.
func (s *AccountService) List(ctx context.Context, actor *models.Account) ([]models.Account, error) {
	ctx = ensureContext(ctx)
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("account service: list: %w", err)
	}
	return accounts, nil
}

// Update applies an administrator edit to the account identified by id.
func (s *AccountService) Update(ctx context.Context, actor *models.Account, id string, input AdminUpdateAccountInput) (*models.Account, error) {
	ctx = ensureContext(ctx)
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}

	account, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := trimmedOrNil(input.Name); name != nil {
		updates["name"] = *name
	}
	if phone := trimmedOrNil(input.Phone); phone != nil {
		updates["phone"] = *phone
	}
	if role := trimmedOrNil(input.Role); role != nil {
		normalized := strings.ToLower(*role)
		if normalized != models.RoleUser && normalized != models.RoleAdmin {
			return nil, apperrors.NewValidation("Role must be user or admin")
		}
		updates["role"] = normalized
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", account.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("account service: update: %w", err)
		}
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: accountIDPtr(actor.ID),
		Email:     actor.Email,
		Action:    "admin.user.update",
		Resource:  "users",
		Result:    "success",
		Metadata:  map[string]any{"target_id": account.ID, "fields": len(updates)},
	})
	return s.load(ctx, account.ID)
}

// Delete removes an account together with its listings, favorites, price
// history and outstanding reset tokens. Administrators cannot delete themselves.
func (s *AccountService) Delete(ctx context.Context, actor *models.Account, id string) error {
	ctx = ensureContext(ctx)
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}

	account, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	var listingIDs []string
	if err := s.db.WithContext(ctx).Model(&models.Listing{}).Where("user_id = ?", account.ID).Pluck("id", &listingIDs).Error; err != nil {
		return fmt.Errorf("account service: load listings: %w", err)
	}

	var blobs []string
	if len(listingIDs) > 0 {
		var listings []models.Listing
		if err := s.db.WithContext(ctx).
			Preload("Images").
			Where("id IN ?", listingIDs).
			Find(&listings).Error; err != nil {
			return fmt.Errorf("account service: load galleries: %w", err)
		}
		for _, listing := range listings {
			blobs = append(blobs, listingBlobURLs(listing.PrimaryImageURL, listing.Images)...)
		}
	}
	if avatar := stringValue(account.ProfileImageURL); avatar != "" {
		blobs = append(blobs, avatar)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", account.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if len(listingIDs) > 0 {
			if err := tx.Where("post_id IN ?", listingIDs).Delete(&models.Favorite{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", listingIDs).Delete(&models.PriceHistoryEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", listingIDs).Delete(&models.ListingImage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", listingIDs).Delete(&models.Listing{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("email = ?", account.Email).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", account.ID).Delete(&models.Account{}).Error
	})
	if err != nil {
		return fmt.Errorf("account service: delete: %w", err)
	}

	if s.images != nil {
		s.images.DeleteBestEffort(ctx, blobs...)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: accountIDPtr(actor.ID),
		Email:     actor.Email,
		Action:    "admin.user.delete",
		Resource:  "users",
		Result:    "success",
		Metadata:  map[string]any{"target_id": account.ID, "target_email": account.Email, "listings": len(listingIDs)},
	})
	return nil
}

// Promote grants the admin role to the account registered under email.
func (s *AccountService) Promote(ctx context.Context, email string) (*models.Account, error) {
	ctx = ensureContext(ctx)

	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewValidation("Email is required")
	}

	result := s.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Update("role", models.RoleAdmin)
	if result.Error != nil {
		return nil, fmt.Errorf("account service: promote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NewNotFound("User")
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error; err != nil {
		return nil, fmt.Errorf("account service: reload: %w", err)
	}
	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: accountIDPtr(account.ID),
		Email:     email,
		Action:    "admin.user.promote",
		Resource:  "users",
		Result:    "success",
	})
	return &account, nil
}

func (s *AccountService) load(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("User")
		}
		return nil, fmt.Errorf("account service: load: %w", err)
	}
	return &account, nil
}
