package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/accounts-server/internal/api/http/context"
	"github.com/dtroode/accounts-server/internal/api/http/handler"
	"github.com/dtroode/accounts-server/internal/api/http/session"
	"github.com/dtroode/accounts-server/internal/mocks"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/testutil"
	"github.com/dtroode/accounts-server/internal/token"
)

func newTestRouter(t *testing.T, service *mocks.CredentialService, staticDir string) (http.Handler, model.SessionManager) {
	t.Helper()

	log := testutil.MakeNoopLogger()
	sessions := token.NewJWT("test-secret", time.Hour)
	cookie := session.NewCookie("accounts_session", false, time.Hour)
	manager := httpctx.NewManager()
	auth := handler.NewAuth(service, sessions, cookie, manager, log)

	return New(auth, sessions, cookie, manager, log, staticDir).Register(), sessions
}

func TestRouter_PublicRoutes(t *testing.T) {
	service := &mocks.CredentialService{}
	service.On("Authorize", mock.Anything, "a@x.com", "pw123").
		Return(model.AuthResult{Authorized: true, UserID: uuid.New()}, nil)
	mux, _ := newTestRouter(t, service, "")

	req := httptest.NewRequest(http.MethodPost, "/api/authorize",
		strings.NewReader(`{"email":"a@x.com","password":"pw123"}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"SUCCESS"`)
}

func TestRouter_PrivateRoutesRequireSession(t *testing.T) {
	userID := uuid.New()
	service := &mocks.CredentialService{}
	service.On("RegisterTwoFactor", mock.Anything, userID, "JBSWY3DPEHPK3PXP", "123456").Return(nil)
	mux, sessions := newTestRouter(t, service, "")

	body := `{"token":"123456","secret":"JBSWY3DPEHPK3PXP"}`

	t.Run("without cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/2fa-register", strings.NewReader(body))
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("with cookie", func(t *testing.T) {
		tokenString, err := sessions.IssueSession(userID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/2fa-register", strings.NewReader(body))
		req.AddCookie(&http.Cookie{Name: "accounts_session", Value: tokenString})
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_UserRouteIsOptional(t *testing.T) {
	mux, _ := newTestRouter(t, &mocks.CredentialService{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	// Anonymous requests get an empty envelope, not a rejection.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestRouter_StaticFiles(t *testing.T) {
	staticDir := t.TempDir()
	content := "<html>hello</html>"
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte(content), 0o644))

	mux, _ := newTestRouter(t, &mocks.CredentialService{}, staticDir)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.String())
}
