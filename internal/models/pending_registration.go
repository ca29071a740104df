package models

import "time"

// PendingRegistration holds an unverified sign-up until its code is confirmed.
// The unique index on email is what prevents two concurrent registrations for
// the same address from both succeeding.
type PendingRegistration struct {
	BaseModel

	Name               string    `gorm:"size:120;not null" json:"name"`
	Email              string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash       string    `gorm:"not null" json:"-"`
	VerificationCode   string    `gorm:"size:6;not null" json:"-"`
	VerificationExpiry time.Time `gorm:"index;not null" json:"verification_expiry"`
	Phone              *string   `gorm:"size:32" json:"phone"`
}

func (PendingRegistration) TableName() string { return "pending_users" }
