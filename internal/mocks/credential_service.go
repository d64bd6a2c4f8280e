package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/accounts-server/internal/model"
)

type CredentialService struct {
	mock.Mock
}

func (m *CredentialService) Register(ctx context.Context, email, password string) (model.RegisterResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.RegisterResult), args.Error(1)
}

func (m *CredentialService) Authorize(ctx context.Context, email, password string) (model.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.AuthResult), args.Error(1)
}

func (m *CredentialService) VerifyEmail(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func (m *CredentialService) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	args := m.Called(ctx, userID, newPassword)
	return args.Error(0)
}

func (m *CredentialService) RequestReset(ctx context.Context, email string) (model.ResetRequest, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.ResetRequest), args.Error(1)
}

func (m *CredentialService) CompleteReset(ctx context.Context, email, token string, issuedAt time.Time, newPassword string) error {
	args := m.Called(ctx, email, token, issuedAt, newPassword)
	return args.Error(0)
}

func (m *CredentialService) RegisterTwoFactor(ctx context.Context, userID uuid.UUID, secret, code string) error {
	args := m.Called(ctx, userID, secret, code)
	return args.Error(0)
}

func (m *CredentialService) GetUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}
