package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/api/http/session"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// CredentialService defines the account operations behind the HTTP surface.
type CredentialService interface {
	Register(ctx context.Context, email, password string) (model.RegisterResult, error)
	Authorize(ctx context.Context, email, password string) (model.AuthResult, error)
	VerifyEmail(ctx context.Context, email, token string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error
	RequestReset(ctx context.Context, email string) (model.ResetRequest, error)
	CompleteReset(ctx context.Context, email, token string, issuedAt time.Time, newPassword string) error
	RegisterTwoFactor(ctx context.Context, userID uuid.UUID, secret, code string) error
	GetUser(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// Auth handles the HTTP endpoints for authentication.
type Auth struct {
	service        CredentialService
	sessions       model.SessionManager
	cookie         *session.Cookie
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	service CredentialService,
	sessions model.SessionManager,
	cookie *session.Cookie,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		service:        service,
		sessions:       sessions,
		cookie:         cookie,
		contextManager: contextManager,
		logger:         logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
	Time     int64  `json:"time"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type twoFactorRequest struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
}

type statusData struct {
	Status string `json:"status"`
	UserID string `json:"userId,omitempty"`
}

type userData struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	TwoFactor     bool   `json:"twoFactor"`
}

// Register creates the account, sends the verification mail and logs the new
// user in by setting the session cookie.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest)
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("Auth handler: registration failed", "error", err.Error())
		writeFailure(w, statusForError(err))
		return
	}

	h.logIn(w, result.UserID)

	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS", UserID: result.UserID.String()}})
}

// Authorize checks credentials and sets the session cookie on success.
// Unknown email and wrong password produce the same response.
func (h *Auth) Authorize(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest)
		return
	}

	result, err := h.service.Authorize(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("Auth handler: authorization failed", "error", err.Error())
		writeFailure(w, statusForError(err))
		return
	}

	if !result.Authorized {
		writeFailure(w, http.StatusUnauthorized)
		return
	}

	h.logIn(w, result.UserID)

	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS", UserID: result.UserID.String()}})
}

// Logout clears the session cookie.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS"}})
}

// VerifyEmail validates the verification token and marks the address
// verified.
func (h *Auth) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.Token); err != nil {
		writeFailure(w, statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS"}})
}

// ForgotPassword triggers the reset mail. The response is 200 whether or not
// the address exists.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest)
		return
	}

	if _, err := h.service.RequestReset(r.Context(), req.Email); err != nil {
		h.logger.Error("Auth handler: reset request failed", "error", err.Error())
		writeFailure(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS"}})
}

// ResetPassword completes a reset using the mailed token and its timestamp.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest)
		return
	}

	issuedAt := time.Unix(req.Time, 0)
	if err := h.service.CompleteReset(r.Context(), req.Email, req.Token, issuedAt, req.Password); err != nil {
		writeFailure(w, statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS"}})
}

// ChangePassword re-authorizes with the old password before overwriting it.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeFailure(w, statusForError(err))
		return
	}

	result, err := h.service.Authorize(r.Context(), user.Email, req.OldPassword)
	if err != nil {
		h.logger.Error("Auth handler: re-authorization failed", "error", err.Error())
		writeFailure(w, statusForError(err))
		return
	}
	if !result.Authorized {
		writeFailure(w, http.StatusUnauthorized)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.NewPassword); err != nil {
		writeFailure(w, statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS"}})
}

// RegisterTwoFactor stores the TOTP secret for the session user after
// validating the presented code.
func (h *Auth) RegisterTwoFactor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized)
		return
	}

	var req twoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest)
		return
	}

	if err := h.service.RegisterTwoFactor(r.Context(), userID, req.Secret, req.Token); err != nil {
		writeFailure(w, statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: statusData{Status: "SUCCESS"}})
}

// CurrentUser returns the session user, or an empty object when anonymous.
func (h *Auth) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, envelope{})
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeFailure(w, statusForError(err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: map[string]userData{
		"user": {
			ID:            user.ID.String(),
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
			TwoFactor:     user.TwoFactorSecret != nil,
		},
	}})
}

func (h *Auth) logIn(w http.ResponseWriter, userID uuid.UUID) {
	token, err := h.sessions.IssueSession(userID)
	if err != nil {
		// The account operation already succeeded; the client just has to
		// log in explicitly.
		h.logger.Error("Auth handler: failed to issue session", "user_id", userID, "error", err.Error())
		return
	}
	h.cookie.Write(w, token)
}
