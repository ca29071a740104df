package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/autodetail/pkg/errors"
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}

var (
	// ErrInvalidResetToken is returned for absent, mismatched or expired reset tokens.
	ErrInvalidResetToken = apperrors.NewMismatch("Invalid or expired token")
	// ErrCannotDeleteSelf blocks administrators from removing their own account.
	ErrCannotDeleteSelf = apperrors.NewValidation("You cannot delete your own account")
	// ErrNoImages is returned when an image upload carries no files.
	ErrNoImages = apperrors.NewValidation("At least one image is required")
)
