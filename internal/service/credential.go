package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/token"
)

// dummyHash is a valid bcrypt hash compared against when the email is
// unknown, so that lookups and password mismatches share a timing class.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Credential orchestrates registration, authorization, email verification,
// password reset and two-factor enrollment. Durable mutation is delegated to
// the user store, which provides atomic per-record updates; the service
// itself holds no mutable state.
type Credential struct {
	users      model.UserStore
	hasher     model.Hasher
	deriver    *token.Deriver
	mailer     model.Mailer
	logger     *logger.Logger
	rootDomain string
}

func NewCredential(
	users model.UserStore,
	hasher model.Hasher,
	deriver *token.Deriver,
	mailer model.Mailer,
	logger *logger.Logger,
	rootDomain string,
) *Credential {
	return &Credential{
		users:      users,
		hasher:     hasher,
		deriver:    deriver,
		mailer:     mailer,
		logger:     logger,
		rootDomain: rootDomain,
	}
}

// Register creates a new user and sends the verification mail. A duplicate
// normalized email fails with ErrDuplicateEmail and leaves the existing
// record untouched. Mail delivery failure does not fail the registration; it
// is reported through the result.
func (s *Credential) Register(ctx context.Context, email, password string) (model.RegisterResult, error) {
	normalized := normalizeEmail(email)
	if err := validateEmail(normalized); err != nil {
		return model.RegisterResult{}, err
	}
	if err := validatePassword(password); err != nil {
		return model.RegisterResult{}, err
	}

	s.logger.Debug("Credential service: registering user")

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return model.RegisterResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user, err := s.users.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.RegisterResult{}, err
		}
		return model.RegisterResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	result := model.RegisterResult{UserID: user.ID, VerificationSent: true}

	link := s.verificationLink(normalized)
	err = s.mailer.Send(ctx, model.Message{
		To:      normalized,
		Subject: "Verify your email",
		HTML:    fmt.Sprintf(`<a href="%s">Click here to verify</a>`, link),
	})
	if err != nil {
		s.logger.Error("Credential service: failed to send verification mail",
			"user_id", user.ID,
			"error", err.Error())
		result.VerificationSent = false
	}

	s.logger.Info("Credential service: user registered",
		"user_id", user.ID,
		"verification_sent", result.VerificationSent)

	return result, nil
}

// Authorize checks credentials against the stored hash. It fails closed: an
// unknown email and a wrong password both produce an unauthorized zero
// result with no error and no distinguishing detail.
func (s *Credential) Authorize(ctx context.Context, email, password string) (model.AuthResult, error) {
	normalized := normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, normalized)
	if errors.Is(err, model.ErrNotFound) {
		// Burn a compare anyway to keep the timing class uniform.
		s.hasher.Compare(password, dummyHash)
		return model.AuthResult{}, nil
	}
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		return model.AuthResult{}, nil
	}

	s.logger.Info("Credential service: user authorized", "user_id", user.ID)

	return model.AuthResult{Authorized: true, UserID: user.ID}, nil
}

// VerifyEmail marks the address verified when the candidate token matches the
// derived one. Verifying an already verified address is a no-op success as
// long as the token is valid. Any failure, including an unknown address,
// surfaces as ErrTokenInvalid.
func (s *Credential) VerifyEmail(ctx context.Context, email, candidate string) error {
	normalized := normalizeEmail(email)

	if !s.deriver.CheckVerificationToken(normalized, candidate) {
		return model.ErrTokenInvalid
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.EmailVerified {
		return nil
	}

	if err := s.users.SetEmailVerified(ctx, user.ID, true); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	s.logger.Info("Credential service: email verified", "user_id", user.ID)

	return nil
}

// ChangePassword overwrites the stored hash. Re-authorization with the old
// password is the caller's responsibility.
func (s *Credential) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Credential service: password changed", "user_id", userID)

	return nil
}

// RequestReset derives a reset token bound to the current time and mails the
// reset link. An unknown address yields an empty result and no error, so the
// caller's response is identical either way.
func (s *Credential) RequestReset(ctx context.Context, email string) (model.ResetRequest, error) {
	normalized := normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, normalized)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Debug("Credential service: reset requested for unknown email")
		return model.ResetRequest{}, nil
	}
	if err != nil {
		return model.ResetRequest{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	issuedAt := time.Now()
	resetToken := s.deriver.ResetToken(normalized, issuedAt)

	link := s.resetLink(normalized, resetToken, issuedAt)
	err = s.mailer.Send(ctx, model.Message{
		To:      normalized,
		Subject: "Reset your password",
		HTML:    fmt.Sprintf(`<a href="%s">Click here to reset</a>`, link),
	})
	if err != nil {
		s.logger.Error("Credential service: failed to send reset mail",
			"user_id", user.ID,
			"error", err.Error())
		return model.ResetRequest{}, fmt.Errorf("failed to send reset mail: %w", err)
	}

	s.logger.Info("Credential service: reset requested", "user_id", user.ID)

	return model.ResetRequest{Requested: true, Token: resetToken, IssuedAt: issuedAt}, nil
}

// CompleteReset validates the reset token and its window, then overwrites the
// password without requiring the old one. Every validation failure collapses
// to ErrTokenInvalid.
func (s *Credential) CompleteReset(ctx context.Context, email, candidate string, issuedAt time.Time, newPassword string) error {
	normalized := normalizeEmail(email)

	if !s.deriver.CheckResetToken(normalized, issuedAt, candidate, time.Now()) {
		return model.ErrTokenInvalid
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := s.ChangePassword(ctx, user.ID, newPassword); err != nil {
		return err
	}

	s.logger.Info("Credential service: reset completed", "user_id", user.ID)

	return nil
}

// RegisterTwoFactor stores the TOTP secret after validating a code generated
// from it. An already enrolled user must not be silently overwritten; such
// attempts fail with ErrTwoFactorEnrolled.
func (s *Credential) RegisterTwoFactor(ctx context.Context, userID uuid.UUID, secret, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.TwoFactorSecret != nil {
		return model.ErrTwoFactorEnrolled
	}

	if !totp.Validate(code, secret) {
		return model.ErrTokenInvalid
	}

	if err := s.users.SetTwoFactorSecret(ctx, userID, secret); err != nil {
		return fmt.Errorf("failed to store two-factor secret: %w", err)
	}

	s.logger.Info("Credential service: two-factor registered", "user_id", userID)

	return nil
}

// GetUser returns the stored user for an authenticated session.
func (s *Credential) GetUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Credential) verificationLink(email string) string {
	return fmt.Sprintf("https://%s/verify/%s/%s",
		s.rootDomain, url.QueryEscape(email), s.deriver.VerificationToken(email))
}

func (s *Credential) resetLink(email, resetToken string, issuedAt time.Time) string {
	return fmt.Sprintf("https://%s/reset/%s/%s/%d",
		s.rootDomain, url.QueryEscape(email), resetToken, issuedAt.Unix())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || len(email) > 254 {
		return fmt.Errorf("%w: malformed email", model.ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", model.ErrValidation)
	}
	return nil
}
