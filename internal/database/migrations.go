package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/models"
	"github.com/charlesng35/autodetail/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.PendingRegistration{},
		&models.PasswordResetToken{},
		&models.Car{},
		&models.CarModel{},
		&models.Part{},
		&models.PendingCar{},
		&models.Listing{},
		&models.ListingImage{},
		&models.PriceHistoryEntry{},
		&models.Favorite{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}

// BootstrapAdmin describes the administrator account created on first start.
type BootstrapAdmin struct {
	Name     string
	Email    string
	Password string
}

// SeedOption customises SeedData.
type SeedOption func(*seedConfig)

type seedConfig struct {
	admin *BootstrapAdmin
}

// WithBootstrapAdmin ensures an administrator account exists for the given email.
// An existing account with that email is promoted rather than overwritten.
func WithBootstrapAdmin(admin BootstrapAdmin) SeedOption {
	return func(cfg *seedConfig) {
		if strings.TrimSpace(admin.Email) == "" {
			return
		}
		cpy := admin
		cfg.admin = &cpy
	}
}

// SeedData populates required rows. Without options it is a no-op.
func SeedData(db *gorm.DB, opts ...SeedOption) error {
	cfg := seedConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.admin != nil {
		if err := seedAdmin(db, *cfg.admin); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	return nil
}

func seedAdmin(db *gorm.DB, admin BootstrapAdmin) error {
	email := models.NormalizeEmail(admin.Email)

	var existing models.Account
	err := db.Where("email = ?", email).Take(&existing).Error
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return nil
		}
		return db.Model(&existing).Update("role", models.RoleAdmin).Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if strings.TrimSpace(admin.Password) == "" {
		return errors.New("password is required to create the bootstrap admin")
	}
	hash, err := crypto.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Administrator"
	}

	return db.Create(&models.Account{
		DisplayName:  name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}).Error
}
