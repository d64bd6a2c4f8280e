package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/accounts-server/internal/model"
)

type Mailer struct {
	mock.Mock
}

func (m *Mailer) Send(ctx context.Context, msg model.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
