package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.Hasher = (*Bcrypt)(nil)

// Bcrypt implements password hashing backed by golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a Bcrypt hasher with the default cost.
func NewBcrypt() *Bcrypt {
	return &Bcrypt{cost: bcrypt.DefaultCost}
}

// Hash derives a salted one-way hash from the password.
func (b *Bcrypt) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether password derives to hash. Any failure, including
// a malformed hash, counts as a mismatch.
func (b *Bcrypt) Compare(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
