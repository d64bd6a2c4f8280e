package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/model"
)

// Claims represents session JWT claims with the bound user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
}

// JWT implements SessionManager backed by symmetric HMAC.
type JWT struct {
	secretKey  string
	sessionTTL time.Duration
}

// NewJWT creates a session manager signing with the provided secret key.
func NewJWT(secretKey string, sessionTTL time.Duration) model.SessionManager {
	return &JWT{secretKey: secretKey, sessionTTL: sessionTTL}
}

// IssueSession creates a signed session token binding userID.
func (j *JWT) IssueSession(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.sessionTTL)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ParseSession validates the signature and extracts the bound user ID.
// Malformed or tampered input yields an error, never a panic; callers treat
// any error as "not logged in".
func (j *JWT) ParseSession(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("session token is invalid")
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("session token has no user")
	}
	return claims.UserID, nil
}
