package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// clockSkew is how far in the future a reset timestamp may sit before it is
// rejected outright.
const clockSkew = time.Minute

// Deriver deterministically derives single-use tokens from the server secret.
// Derivation is pure: no randomness, no side effects, safe for concurrent use.
type Deriver struct {
	secret      string
	resetWindow time.Duration
}

// NewDeriver creates a Deriver keyed by secret. Reset tokens are only valid
// for resetWindow after issuance.
func NewDeriver(secret string, resetWindow time.Duration) *Deriver {
	return &Deriver{secret: secret, resetWindow: resetWindow}
}

// VerificationToken derives the email verification token for an address:
// hex(SHA256(secret ":" email)). The same secret and address always produce
// the same token. The token carries no expiry; validity is equality against
// a fresh derivation.
func (d *Deriver) VerificationToken(email string) string {
	return digest(d.secret, email)
}

// CheckVerificationToken reports whether candidate matches the token derived
// for email. Comparison is constant-time. It does not mutate anything;
// marking the address verified is the caller's responsibility.
func (d *Deriver) CheckVerificationToken(email, candidate string) bool {
	return equalTokens(d.VerificationToken(email), candidate)
}

// ResetToken derives a password reset token additionally keyed by the
// issuance time, truncated to whole seconds.
func (d *Deriver) ResetToken(email string, issuedAt time.Time) string {
	return digest(d.secret, email, strconv.FormatInt(issuedAt.Unix(), 10))
}

// CheckResetToken reports whether candidate is the token derived for email at
// issuedAt and whether it is still inside the reset window relative to now.
// A token recomputed outside the window fails even with the correct secret
// and address.
func (d *Deriver) CheckResetToken(email string, issuedAt time.Time, candidate string, now time.Time) bool {
	age := now.Sub(issuedAt)
	if age < -clockSkew || age > d.resetWindow {
		return false
	}
	return equalTokens(d.ResetToken(email, issuedAt), candidate)
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

func equalTokens(derived, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(derived), []byte(candidate)) == 1
}
