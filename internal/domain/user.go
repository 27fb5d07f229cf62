package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity aggregate for the accounts collaborator.
// The expense core never touches it beyond the caller's UserID.
type User struct {
	UserID       uuid.UUID
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session models one bearer-token login.
// Persisting it separately from the token keeps revocation source-of-truth driven.
type Session struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
