package model

import "github.com/google/uuid"

// SessionManager issues and validates the signed session artifact carried by
// clients. Sessions are stateless: identity is re-derived from the signature
// on every request and revocation is cookie clearing on the client side.
type SessionManager interface {
	IssueSession(userID uuid.UUID) (string, error)
	ParseSession(token string) (uuid.UUID, error)
}
