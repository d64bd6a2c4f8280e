package model

// Hasher derives and verifies password credentials. The derived hash is
// salted, so two calls for the same plaintext produce different but equally
// verifiable values. The plaintext never leaves the implementation.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}
