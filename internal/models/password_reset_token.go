package models

import "time"

// PasswordResetToken is a single-use credential recovery secret scoped to an email.
type PasswordResetToken struct {
	BaseModel

	Email     string    `gorm:"size:255;not null;index" json:"email"`
	Token     string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (PasswordResetToken) TableName() string { return "password_resets" }
