package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/api/http/session"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// Authenticate resolves the session cookie into a user ID in the request
// context. Malformed or tampered cookies are treated as "not logged in".
type Authenticate struct {
	sessions       model.SessionManager
	cookie         *session.Cookie
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(sessions model.SessionManager, cookie *session.Cookie, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		sessions:       sessions,
		cookie:         cookie,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Require rejects requests without a valid session with 401.
func (m *Authenticate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.resolve(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(m.contextManager.SetUserIDToContext(r.Context(), userID)))
	})
}

// Optional injects the user ID when the session is valid and passes the
// request through anonymously otherwise.
func (m *Authenticate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := m.resolve(r); ok {
			r = r.WithContext(m.contextManager.SetUserIDToContext(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Authenticate) resolve(r *http.Request) (uuid.UUID, bool) {
	tokenString, ok := m.cookie.Read(r)
	if !ok {
		return uuid.Nil, false
	}

	userID, err := m.sessions.ParseSession(tokenString)
	if err != nil {
		m.logger.Debug("invalid session cookie", "error", err.Error())
		return uuid.Nil, false
	}

	return userID, true
}
