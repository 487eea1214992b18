// Package entity defines the domain entities for the auth feature.
package entity

import (
	"strings"
	"time"
)

const (
	// ProviderLocal tags accounts created through email/password signup.
	ProviderLocal = "local"

	// PlaceholderName is stored when a federated login carries no usable name.
	PlaceholderName = "Usuario sin nombre"
)

// User represents a registered user in the system.
// Local signups and federated logins share one record per email.
type User struct {
	// ID is the store-assigned identifier. Zero means the user has not been persisted yet.
	ID uint `gorm:"primaryKey"`

	// Email is stored normalized (see NormalizeEmail) and must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Name is the display name. Never empty once persisted.
	Name string `gorm:"size:255;not null"`

	// Password is the bcrypt hash for local accounts, nil for federated-only accounts.
	// This should never store plaintext passwords.
	Password *string `gorm:"size:255"`

	// Provider is "local" or the federation registration id (e.g. "google").
	Provider string `gorm:"size:50;not null;index:idx_usuarios_provider_subject"`

	// ProviderID is the federated subject identifier ("sub"). Empty for local accounts.
	ProviderID string `gorm:"size:255;index:idx_usuarios_provider_subject"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name used by the existing database.
func (User) TableName() string {
	return "usuarios"
}

// HasPassword reports whether the user can log in with a local password.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// NormalizeEmail trims and lower-cases an email address.
// Email uniqueness is case-insensitive: every lookup and write goes through this function.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
