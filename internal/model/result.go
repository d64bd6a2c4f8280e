package model

import (
	"time"

	"github.com/google/uuid"
)

// RegisterResult is the outcome of a successful registration.
// VerificationSent is false when the account was created but the verification
// mail could not be delivered; the caller decides whether to retry.
type RegisterResult struct {
	UserID           uuid.UUID
	VerificationSent bool
}

// AuthResult is the outcome of an authorization attempt. Unknown email and
// wrong password produce the same zero result; callers cannot tell them apart.
type AuthResult struct {
	Authorized bool
	UserID     uuid.UUID
}

// ResetRequest is the outcome of a password reset request. Requested is false
// when the address is unknown; the zero result is returned without error so
// the surface never reveals whether an account exists.
type ResetRequest struct {
	Requested bool
	Token     string
	IssuedAt  time.Time
}
