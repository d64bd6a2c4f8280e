package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users. Every method maps to a
// single atomic statement against the backing store.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string) error
}

// User represents a stored user with authentication material.
// Email is stored normalized: trimmed and lowercased.
type User struct {
	ID              uuid.UUID
	Email           string
	EmailVerified   bool
	PasswordHash    string
	TwoFactorSecret *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
