// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Auth provider tags stored on User.AuthProvider.
const (
	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
)

// User represents a registered account. OAuth-provisioned accounts still carry
// a randomly generated bcrypt hash so Password is never empty in practice.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"unique;not null" json:"username"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	GoogleID     *string        `gorm:"uniqueIndex" json:"-"`
	AuthProvider string         `gorm:"not null;default:local" json:"auth_provider"`
	Avatar       string         `json:"avatar"`
	Bio          string         `json:"bio"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
