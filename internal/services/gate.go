package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/auth"
	"github.com/charlesng35/autodetail/internal/models"
	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

// Gate resolves the acting account for a request and asserts role or ownership
// before any mutation is attempted.
type Gate struct {
	db *gorm.DB
}

// NewGate constructs a Gate.
func NewGate(db *gorm.DB) (*Gate, error) {
	if db == nil {
		return nil, errors.New("gate: db is required")
	}
	return &Gate{db: db}, nil
}

// ResolveActor loads the account named by the principal. The email claim is
// authoritative; the account id is only used as a fallback when it is empty.
func (g *Gate) ResolveActor(ctx context.Context, principal auth.Principal) (*models.Account, error) {
	ctx = ensureContext(ctx)

	email := models.NormalizeEmail(principal.Email)
	query := g.db.WithContext(ctx)
	switch {
	case email != "":
		query = query.Where("email = ?", email)
	case principal.AccountID != "":
		query = query.Where("id = ?", principal.AccountID)
	default:
		return nil, apperrors.ErrUnauthorized
	}

	var account models.Account
	if err := query.Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("User")
		}
		return nil, fmt.Errorf("gate: load account: %w", err)
	}
	return &account, nil
}

// RequireAdmin fails with Forbidden unless account holds the admin role.
func RequireAdmin(account *models.Account) error {
	if account == nil || !account.IsAdmin() {
		return apperrors.NewForbidden("Admin access required")
	}
	return nil
}

// RequireOwnerOrAdmin fails with Forbidden unless account owns the resource or is an admin.
func RequireOwnerOrAdmin(account *models.Account, ownerID string) error {
	if account == nil {
		return apperrors.NewForbidden("Not allowed")
	}
	if account.IsAdmin() || (ownerID != "" && account.ID == ownerID) {
		return nil
	}
	return apperrors.NewForbidden("Not allowed")
}

// ResolveAdmin combines ResolveActor and RequireAdmin.
func (g *Gate) ResolveAdmin(ctx context.Context, principal auth.Principal) (*models.Account, error) {
	account, err := g.ResolveActor(ctx, principal)
	if err != nil {
		return nil, err
	}
	if err := RequireAdmin(account); err != nil {
		return nil, err
	}
	return account, nil
}
