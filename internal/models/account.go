package models

import "strings"

// Account roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account is a verified marketplace user. Accounts are only created by promoting
// a PendingRegistration (or by seeding the bootstrap administrator).
type Account struct {
	BaseModel

	DisplayName     string  `gorm:"column:name;size:120;not null" json:"name"`
	Email           string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash    string  `gorm:"not null" json:"-"`
	Role            string  `gorm:"size:16;not null;default:user;index" json:"role"`
	Phone           *string `gorm:"size:32" json:"phone"`
	ProfileImageURL *string `gorm:"size:1024" json:"profile_image_url"`
}

func (Account) TableName() string { return "users" }

// IsAdmin reports whether the account holds the administrator role.
func (a *Account) IsAdmin() bool {
	return a != nil && strings.EqualFold(a.Role, RoleAdmin)
}

// NormalizeEmail trims and lower-cases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
