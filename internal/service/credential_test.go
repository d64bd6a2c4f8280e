package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/accounts-server/internal/hash"
	"github.com/dtroode/accounts-server/internal/mocks"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/testutil"
	"github.com/dtroode/accounts-server/internal/token"
)

const testResetWindow = 30 * time.Minute

func newTestCredential(users *mocks.UserStore, mailer *mocks.Mailer) (*Credential, *token.Deriver) {
	deriver := token.NewDeriver("test-secret", testResetWindow)
	return NewCredential(users, hash.NewBcrypt(), deriver, mailer, testutil.MakeNoopLogger(), "example.test"), deriver
}

func TestCredential_Register_Success(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	userID := uuid.New()
	users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Email == "a@x.com" && u.PasswordHash != "" && u.PasswordHash != "pw123"
	})).Return(model.User{ID: userID, Email: "a@x.com"}, nil)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg model.Message) bool {
		return msg.To == "a@x.com" && msg.Subject == "Verify your email"
	})).Return(nil)

	result, err := svc.Register(ctx, "  A@X.com ", "pw123")
	require.NoError(t, err)

	assert.Equal(t, userID, result.UserID)
	assert.True(t, result.VerificationSent)
	mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestCredential_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	users.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrDuplicateEmail)

	_, err := svc.Register(ctx, "a@x.com", "pw123")
	require.ErrorIs(t, err, model.ErrDuplicateEmail)
	mailer.AssertNumberOfCalls(t, "Send", 0)
}

func TestCredential_Register_Validation(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	_, err := svc.Register(ctx, "not-an-email", "pw123")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Register(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, model.ErrValidation)

	users.AssertNotCalled(t, "Create")
}

func TestCredential_Register_MailFailureNonFatal(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	userID := uuid.New()
	users.On("Create", mock.Anything, mock.Anything).Return(model.User{ID: userID, Email: "a@x.com"}, nil)
	mailer.On("Send", mock.Anything, mock.Anything).Return(assert.AnError)

	result, err := svc.Register(ctx, "a@x.com", "pw123")
	require.NoError(t, err)

	assert.Equal(t, userID, result.UserID)
	assert.False(t, result.VerificationSent)
}

func TestCredential_RegisterThenAuthorize(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	userID := uuid.New()
	var storedHash string
	users.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		storedHash = args.Get(1).(model.User).PasswordHash
	}).Return(model.User{ID: userID, Email: "a@x.com"}, nil)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Register(ctx, "a@x.com", "pw123")
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{ID: userID, Email: "a@x.com", PasswordHash: storedHash}, nil)

	result, err := svc.Authorize(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.Equal(t, userID, result.UserID)
}

func TestCredential_Authorize_FailsClosed(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	hasher := hash.NewBcrypt()
	correctHash, err := hasher.Hash("pw123")
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "unknown@x.com").Return(model.User{}, model.ErrNotFound)
	users.On("GetByEmail", mock.Anything, "known@x.com").Return(model.User{ID: uuid.New(), Email: "known@x.com", PasswordHash: correctHash}, nil)

	unknownResult, err := svc.Authorize(ctx, "unknown@x.com", "pw123")
	require.NoError(t, err)

	wrongPassResult, err := svc.Authorize(ctx, "known@x.com", "wrong")
	require.NoError(t, err)

	// Unknown email and wrong password are indistinguishable to the caller.
	assert.Equal(t, model.AuthResult{}, unknownResult)
	assert.Equal(t, model.AuthResult{}, wrongPassResult)
	assert.Equal(t, unknownResult, wrongPassResult)
}

func TestCredential_VerifyEmail_Success(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, deriver := newTestCredential(users, mailer)

	userID := uuid.New()
	users.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{ID: userID, Email: "a@x.com"}, nil)
	users.On("SetEmailVerified", mock.Anything, userID, true).Return(nil)

	err := svc.VerifyEmail(ctx, "a@x.com", deriver.VerificationToken("a@x.com"))
	require.NoError(t, err)

	users.AssertCalled(t, "SetEmailVerified", mock.Anything, userID, true)
}

func TestCredential_VerifyEmail_WrongToken(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	err := svc.VerifyEmail(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)

	// Record stays untouched: no lookup, no mutation.
	users.AssertNotCalled(t, "GetByEmail")
	users.AssertNotCalled(t, "SetEmailVerified")
}

func TestCredential_VerifyEmail_Idempotent(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, deriver := newTestCredential(users, mailer)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{ID: uuid.New(), Email: "a@x.com", EmailVerified: true}, nil)

	err := svc.VerifyEmail(ctx, "a@x.com", deriver.VerificationToken("a@x.com"))
	require.NoError(t, err)

	users.AssertNotCalled(t, "SetEmailVerified")
}

func TestCredential_VerifyEmail_UnknownAddress(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, deriver := newTestCredential(users, mailer)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{}, model.ErrNotFound)

	err := svc.VerifyEmail(ctx, "a@x.com", deriver.VerificationToken("a@x.com"))
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestCredential_ChangePassword(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	userID := uuid.New()
	users.On("UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, svc.ChangePassword(ctx, userID, "newpw"))

	unknownID := uuid.New()
	users.On("UpdatePassword", mock.Anything, unknownID, mock.AnythingOfType("string")).Return(model.ErrNotFound)

	assert.ErrorIs(t, svc.ChangePassword(ctx, unknownID, "newpw"), model.ErrNotFound)
}

func TestCredential_RequestReset_UnknownEmailSilent(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	users.On("GetByEmail", mock.Anything, "unknown@x.com").Return(model.User{}, model.ErrNotFound)

	result, err := svc.RequestReset(ctx, "unknown@x.com")
	require.NoError(t, err)

	assert.False(t, result.Requested)
	mailer.AssertNumberOfCalls(t, "Send", 0)
}

func TestCredential_RequestReset_Success(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, deriver := newTestCredential(users, mailer)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{ID: uuid.New(), Email: "a@x.com"}, nil)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg model.Message) bool {
		return msg.To == "a@x.com" && msg.Subject == "Reset your password"
	})).Return(nil)

	result, err := svc.RequestReset(ctx, "a@x.com")
	require.NoError(t, err)

	assert.True(t, result.Requested)
	assert.Equal(t, deriver.ResetToken("a@x.com", result.IssuedAt), result.Token)
}

func TestCredential_CompleteReset_WithinWindow(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, deriver := newTestCredential(users, mailer)

	userID := uuid.New()
	t0 := time.Now().Add(-time.Second)
	resetToken := deriver.ResetToken("a@x.com", t0)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(model.User{ID: userID, Email: "a@x.com"}, nil)
	users.On("UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, svc.CompleteReset(ctx, "a@x.com", resetToken, t0, "newpw"))
	users.AssertCalled(t, "UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string"))
}

func TestCredential_CompleteReset_BeyondWindow(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, deriver := newTestCredential(users, mailer)

	t0 := time.Now().Add(-3600 * time.Second)
	resetToken := deriver.ResetToken("a@x.com", t0)

	err := svc.CompleteReset(ctx, "a@x.com", resetToken, t0, "newpw")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
	users.AssertNotCalled(t, "UpdatePassword")
}

func TestCredential_CompleteReset_TamperedToken(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	err := svc.CompleteReset(ctx, "a@x.com", "tampered", time.Now(), "newpw")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
	users.AssertNotCalled(t, "GetByEmail")
}

func TestCredential_RegisterTwoFactor_Success(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	userID := uuid.New()
	secret := "JBSWY3DPEHPK3PXP"
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	users.On("GetByID", mock.Anything, userID).Return(model.User{ID: userID, Email: "a@x.com"}, nil)
	users.On("SetTwoFactorSecret", mock.Anything, userID, secret).Return(nil)

	require.NoError(t, svc.RegisterTwoFactor(ctx, userID, secret, code))
}

func TestCredential_RegisterTwoFactor_InvalidCode(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	userID := uuid.New()
	users.On("GetByID", mock.Anything, userID).Return(model.User{ID: userID, Email: "a@x.com"}, nil)

	err := svc.RegisterTwoFactor(ctx, userID, "JBSWY3DPEHPK3PXP", "000000")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
	users.AssertNotCalled(t, "SetTwoFactorSecret")
}

func TestCredential_RegisterTwoFactor_AlreadyEnrolled(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserStore{}
	mailer := &mocks.Mailer{}
	svc, _ := newTestCredential(users, mailer)

	userID := uuid.New()
	existing := "EXISTINGSECRET234567"
	users.On("GetByID", mock.Anything, userID).Return(model.User{ID: userID, Email: "a@x.com", TwoFactorSecret: &existing}, nil)

	err := svc.RegisterTwoFactor(ctx, userID, "JBSWY3DPEHPK3PXP", "000000")
	assert.ErrorIs(t, err, model.ErrTwoFactorEnrolled)
	users.AssertNotCalled(t, "SetTwoFactorSecret")
}
